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
	"fmt"
	"math"
	"strings"

	"github.com/juju/errors"
)

// InvalidFractionError is returned when the test fraction is outside (0, 1).
type InvalidFractionError struct {
	Fraction float64
}

func (e *InvalidFractionError) Error() string {
	return fmt.Sprintf("test fraction %v is not in (0, 1)", e.Fraction)
}

func (e *InvalidFractionError) Is(target error) bool {
	return target == errors.NotValid
}

// ValidateFraction checks that fraction lies in the open interval (0, 1).
func ValidateFraction(fraction float64) error {
	if math.IsNaN(fraction) || fraction <= 0 || fraction >= 1 {
		return &InvalidFractionError{Fraction: fraction}
	}
	return nil
}

// InsufficientClassSamplesError is returned when a label class cannot be
// represented in every subset, or when there are fewer than two classes to
// stratify on.
type InsufficientClassSamplesError struct {
	// Label of the offending class. Empty if the dataset has too few classes.
	Label string
	// Count is the number of rows of the class, or the number of classes.
	Count int
	// Required is the minimum that would have been accepted.
	Required int
}

func (e *InsufficientClassSamplesError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("stratified split requires at least %d classes, got %d", e.Required, e.Count)
	}
	return fmt.Sprintf("class %q has %d rows, cannot be split at the requested fraction (need %d)", e.Label, e.Count, e.Required)
}

func (e *InsufficientClassSamplesError) Is(target error) bool {
	return target == errors.NotValid
}

// MissingColumnError is returned when the label column is absent.
type MissingColumnError struct {
	Column  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found in [%s]", e.Column, strings.Join(e.Columns, ","))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == errors.NotFound
}

// SourceNotFoundError is returned when the source file, object or table does
// not exist.
type SourceNotFoundError struct {
	Source string
	Err    error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %s not found: %v", e.Source, e.Err)
}

func (e *SourceNotFoundError) Unwrap() error {
	return e.Err
}

func (e *SourceNotFoundError) Is(target error) bool {
	return target == errors.NotFound
}

// SourceParseError is returned when the source cannot be read or does not
// hold a non-empty table with a header row.
type SourceParseError struct {
	Source string
	Err    error
}

func (e *SourceParseError) Error() string {
	return fmt.Sprintf("failed to parse source %s: %v", e.Source, e.Err)
}

func (e *SourceParseError) Unwrap() error {
	return e.Err
}

func (e *SourceParseError) Is(target error) bool {
	return target == errors.NotValid
}
