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

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Dataset is a table of rows with one designated label column. Features are
// every other column, in source order.
type Dataset struct {
	label    string
	features dataframe.DataFrame
	labels   series.Series
	classes  *ClassDict
}

// LoadCSV parses delimited text whose first row holds the column names.
// Column types are detected from the values.
func LoadCSV(r io.Reader, label string, delimiter rune) (*Dataset, error) {
	frame := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if frame.Err != nil {
		return nil, &SourceParseError{Err: frame.Err}
	}
	return NewDataset(frame, label)
}

// LoadRecords builds a Dataset from a header row followed by records.
func LoadRecords(records [][]string, label string) (*Dataset, error) {
	if len(records) < 2 {
		return nil, &SourceParseError{Err: errors.New("no records after header")}
	}
	frame := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if frame.Err != nil {
		return nil, &SourceParseError{Err: frame.Err}
	}
	return NewDataset(frame, label)
}

// NewDataset separates the label column of frame from its features.
func NewDataset(frame dataframe.DataFrame, label string) (*Dataset, error) {
	if frame.Nrow() == 0 {
		return nil, &SourceParseError{Err: errors.New("empty dataset")}
	}
	if !lo.Contains(frame.Names(), label) {
		return nil, &MissingColumnError{Column: label, Columns: frame.Names()}
	}
	labels := frame.Col(label)
	if labels.Err != nil {
		return nil, &SourceParseError{Err: labels.Err}
	}
	features := frame.Drop(label)
	if features.Err != nil {
		return nil, &SourceParseError{Err: features.Err}
	}
	return &Dataset{
		label:    label,
		features: features,
		labels:   labels,
		classes:  NewClassDictFromLabels(labels.Records()),
	}, nil
}

// Count returns the number of rows.
func (d *Dataset) Count() int {
	return d.labels.Len()
}

// Label returns the name of the label column.
func (d *Dataset) Label() string {
	return d.label
}

// Features returns the table without the label column.
func (d *Dataset) Features() dataframe.DataFrame {
	return d.features
}

// Labels returns the label column aligned with Features by row.
func (d *Dataset) Labels() series.Series {
	return d.labels
}

// LabelRecords returns the labels in their string form. Classes are
// distinguished by this form.
func (d *Dataset) LabelRecords() []string {
	return d.labels.Records()
}

// Classes returns the label classes in first-seen order.
func (d *Dataset) Classes() *ClassDict {
	return d.classes
}

// SubSet restricts the dataset to the given rows, in the given order.
func (d *Dataset) SubSet(index []int) *Subset {
	return &Subset{
		Index:    index,
		Features: d.features.Subset(index),
		Labels:   d.labels.Subset(index),
	}
}

// Subset is one side of a split: features and labels of the selected rows,
// aligned by position. Index holds the selected row numbers of the source.
type Subset struct {
	Index    []int
	Features dataframe.DataFrame
	Labels   series.Series
}

// Count returns the number of selected rows.
func (s *Subset) Count() int {
	return len(s.Index)
}

// CountLabels returns the number of rows of every label.
func (s *Subset) CountLabels() map[string]int {
	return lo.CountValues(s.Labels.Records())
}
