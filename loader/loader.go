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

package loader

import (
	"io"

	"github.com/gorse-io/stratify/base/log"
	"github.com/gorse-io/stratify/config"
	"github.com/gorse-io/stratify/dataset"
	"github.com/gorse-io/stratify/split"
	"github.com/gorse-io/stratify/storage"
	"github.com/gorse-io/stratify/storage/blob"
	"github.com/gorse-io/stratify/storage/table"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Fold is one train/test pair of a k-fold split.
type Fold struct {
	Train *dataset.Subset
	Test  *dataset.Subset
}

// Split reads heart.csv from the working directory and splits it into train
// and test subsets. Every label class keeps its share of rows in both subsets.
func Split(testFraction float64, label string, seed int64) (train, test *dataset.Subset, err error) {
	cfg := config.GetDefaultConfig()
	cfg.Split.TestFraction = testFraction
	cfg.Split.Label = label
	cfg.Split.Seed = seed
	return LoadTrainAndTest(cfg)
}

// LoadTrainAndTest reads the configured source and splits it into train and
// test subsets.
func LoadTrainAndTest(cfg *config.Config) (train, test *dataset.Subset, err error) {
	if err = dataset.ValidateFraction(cfg.Split.TestFraction); err != nil {
		return nil, nil, err
	}
	data, err := LoadDataset(cfg)
	if err != nil {
		return nil, nil, err
	}
	return SplitDataset(data, cfg.Split)
}

// Load parses delimited text from r and splits it into train and test
// subsets. The caller owns r.
func Load(r io.Reader, cfg *config.Config) (train, test *dataset.Subset, err error) {
	if err = dataset.ValidateFraction(cfg.Split.TestFraction); err != nil {
		return nil, nil, err
	}
	data, err := Parse(r, cfg)
	if err != nil {
		return nil, nil, err
	}
	return SplitDataset(data, cfg.Split)
}

// LoadFolds reads the configured source and splits it into cfg.Split.Folds
// stratified folds.
func LoadFolds(cfg *config.Config) ([]Fold, error) {
	data, err := LoadDataset(cfg)
	if err != nil {
		return nil, err
	}
	splits, err := split.NewStratifiedKFoldSplitter(cfg.Split.Folds)(data.LabelRecords(), cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	folds := make([]Fold, len(splits))
	for i, s := range splits {
		if err = s.Validate(data.Count()); err != nil {
			return nil, errors.Trace(err)
		}
		folds[i] = Fold{Train: data.SubSet(s.Train), Test: data.SubSet(s.Test)}
	}
	return folds, nil
}

// OpenSource opens a blob source for reading. Table sources can not be
// opened as a stream.
func OpenSource(cfg *config.Config) (io.ReadCloser, error) {
	path := cfg.Source.Path
	if storage.IsTableSource(path) {
		return nil, &dataset.SourceParseError{
			Source: log.RedactURL(path),
			Err:    errors.NotSupportedf("streaming table source"),
		}
	}
	r, err := blob.Open(path, cfg)
	if err != nil {
		return nil, sourceError(path, err)
	}
	log.Logger().Debug("open source", zap.String("source", log.RedactURL(path)))
	return r, nil
}

// LoadDataset reads the configured source into a Dataset.
func LoadDataset(cfg *config.Config) (*dataset.Dataset, error) {
	path := cfg.Source.Path
	if storage.IsTableSource(path) {
		records, err := table.ReadRecords(path, cfg.Source)
		if err != nil {
			return nil, sourceError(path, err)
		}
		log.Logger().Debug("read table source",
			zap.String("source", log.RedactURL(path)),
			zap.Int("records", len(records)))
		data, err := dataset.LoadRecords(records, cfg.Split.Label)
		if err != nil {
			return nil, sourceError(path, err)
		}
		return data, nil
	}
	r, err := OpenSource(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Logger().Warn("failed to close source", zap.String("source", log.RedactURL(path)), zap.Error(err))
		}
	}()
	return Parse(r, cfg)
}

// Parse reads delimited text with a header row from r into a Dataset.
func Parse(r io.Reader, cfg *config.Config) (*dataset.Dataset, error) {
	delimiter := ','
	if cfg.Source.Delimiter != "" {
		delimiter = []rune(cfg.Source.Delimiter)[0]
	}
	data, err := dataset.LoadCSV(r, cfg.Split.Label, delimiter)
	if err != nil {
		return nil, sourceError(cfg.Source.Path, err)
	}
	return data, nil
}

// SplitDataset splits data into train and test subsets. Rows are split per
// label class unless cfg.NoStratify is set.
func SplitDataset(data *dataset.Dataset, cfg config.SplitConfig) (train, test *dataset.Subset, err error) {
	splitter := split.NewStratifiedSplitter(cfg.TestFraction)
	if cfg.NoStratify {
		splitter = split.NewRatioSplitter(cfg.TestFraction)
	}
	s, err := splitter(data.LabelRecords(), cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	if err = s.Validate(data.Count()); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if !cfg.NoStratify {
		warnSmallClasses(data.Classes(), cfg.TestFraction)
	}
	return data.SubSet(s.Train), data.SubSet(s.Test), nil
}

// warnSmallClasses logs classes with fewer than twice the minimum rows.
func warnSmallClasses(classes *dataset.ClassDict, testFraction float64) {
	minSize := split.MinClassSize(testFraction)
	for id := 0; id < classes.Count(); id++ {
		if classes.Freq(id) < 2*minSize {
			label, _ := classes.String(id)
			log.Logger().Warn("class is close to the minimum size",
				zap.String("label", label),
				zap.Int("rows", classes.Freq(id)),
				zap.Int("min_rows", minSize))
		}
	}
}

// sourceError converts storage and parse errors into the typed source errors.
func sourceError(path string, err error) error {
	source := log.RedactURL(path)
	var parseErr *dataset.SourceParseError
	if errors.As(err, &parseErr) {
		parseErr.Source = source
		return parseErr
	}
	var missing *dataset.MissingColumnError
	if errors.As(err, &missing) {
		return missing
	}
	if errors.Is(err, errors.NotFound) {
		return &dataset.SourceNotFoundError{Source: source, Err: err}
	}
	return &dataset.SourceParseError{Source: source, Err: err}
}
