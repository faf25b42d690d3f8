// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

// ClassDict assigns class ids to label values in first-seen order and keeps
// the member rows of every class.
type ClassDict struct {
	si   map[string]int
	is   []string
	rows [][]int
}

// NewClassDict creates an empty ClassDict.
func NewClassDict() (d *ClassDict) {
	d = &ClassDict{map[string]int{}, []string{}, [][]int{}}
	return
}

// NewClassDictFromLabels builds a ClassDict where row i has label labels[i].
func NewClassDictFromLabels(labels []string) *ClassDict {
	d := NewClassDict()
	for row, label := range labels {
		d.Add(label, row)
	}
	return d
}

// Count returns the number of classes.
func (d *ClassDict) Count() int {
	return len(d.is)
}

// Add records that row belongs to the class of label and returns the class id.
func (d *ClassDict) Add(label string, row int) (y int) {
	if y, ok := d.si[label]; ok {
		d.rows[y] = append(d.rows[y], row)
		return y
	}

	y = len(d.is)
	d.si[label] = y
	d.is = append(d.is, label)
	d.rows = append(d.rows, []int{row})
	return
}

// Id returns the class id of label.
func (d *ClassDict) Id(label string) (y int, ok bool) {
	y, ok = d.si[label]
	return
}

// String returns the label of a class id.
func (d *ClassDict) String(id int) (s string, ok bool) {
	if id < 0 || id >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

// Freq returns the number of rows of a class. Unknown ids have none.
func (d *ClassDict) Freq(id int) int {
	if id < 0 || id >= len(d.rows) {
		return 0
	}
	return len(d.rows[id])
}

// Rows returns the rows of a class in ascending order. The slice must not be
// modified.
func (d *ClassDict) Rows(id int) []int {
	if id < 0 || id >= len(d.rows) {
		return nil
	}
	return d.rows[id]
}
