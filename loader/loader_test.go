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
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/stratify/config"
	"github.com/gorse-io/stratify/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// heartRecords returns a header and positive rows followed by negative rows.
// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}

func heartRecords(positive, negative int) [][]string {
	records := [][]string{{"age", "sex", "chol", "target"}}
	for i := 0; i < positive+negative; i++ {
		target := "0"
		if i < positive {
			target = "1"
		}
		records = append(records, []string{
			fmt.Sprint(30 + i%40),
			fmt.Sprint(i % 2),
			fmt.Sprintf("%.1f", 180+float64(i)*1.5),
			target,
		})
	}
	return records
}

func writeHeart(t *testing.T, dir string, delimiter string, positive, negative int) string {
	lines := lo.Map(heartRecords(positive, negative), func(record []string, _ int) string {
		return strings.Join(record, delimiter)
	})
	path := filepath.Join(dir, "heart.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func assertPartition(t *testing.T, n int, train, test *dataset.Subset) {
	assert.Equal(t, n, train.Count()+test.Count())
	assert.Empty(t, lo.Intersect(train.Index, test.Index))
	assert.ElementsMatch(t, lo.Range(n), append(append([]int{}, train.Index...), test.Index...))
	for _, subset := range []*dataset.Subset{train, test} {
		assert.Equal(t, subset.Count(), subset.Features.Nrow())
		assert.Equal(t, subset.Count(), subset.Labels.Len())
		assert.NotContains(t, subset.Features.Names(), "target")
	}
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	writeHeart(t, dir, ",", 60, 40)
	chdir(t, dir)

	train, test, err := Split(0.2, "target", 0)
	require.NoError(t, err)
	assertPartition(t, 100, train, test)
	assert.Equal(t, 20, test.Count())
	assert.Equal(t, 80, train.Count())
	assert.Equal(t, map[string]int{"1": 12, "0": 8}, test.CountLabels())
	assert.Equal(t, map[string]int{"1": 48, "0": 32}, train.CountLabels())
	assert.Equal(t, []string{"age", "sex", "chol"}, train.Features.Names())

	// same seed, same split
	train2, test2, err := Split(0.2, "target", 0)
	require.NoError(t, err)
	assert.Equal(t, train.Index, train2.Index)
	assert.Equal(t, test.Index, test2.Index)
	assert.Equal(t, test.Labels.Records(), test2.Labels.Records())
}

func TestSplit_FeaturesAligned(t *testing.T) {
	dir := t.TempDir()
	writeHeart(t, dir, ",", 30, 30)
	chdir(t, dir)

	train, test, err := Split(0.5, "target", 7)
	require.NoError(t, err)
	records := heartRecords(30, 30)[1:]
	for _, subset := range []*dataset.Subset{train, test} {
		ages := subset.Features.Col("age").Records()
		labels := subset.Labels.Records()
		for i, row := range subset.Index {
			assert.Equal(t, records[row][0], ages[i])
			assert.Equal(t, records[row][3], labels[i])
		}
	}
}

func TestSplit_Errors(t *testing.T) {
	chdir(t, t.TempDir())

	// missing file
	_, _, err := Split(0.2, "target", 0)
	var notFound *dataset.SourceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "heart.csv", notFound.Source)
	assert.True(t, errors.Is(err, errors.NotFound))

	// the fraction is checked before the source is read
	_, _, err = Split(1.5, "target", 0)
	var invalid *dataset.InvalidFractionError
	assert.ErrorAs(t, err, &invalid)

	writeHeart(t, ".", ",", 10, 10)
	_, _, err = Split(0.2, "outcome", 0)
	var missing *dataset.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "outcome", missing.Column)

	writeHeart(t, ".", ",", 10, 1)
	_, _, err = Split(0.2, "target", 0)
	var insufficient *dataset.InsufficientClassSamplesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "0", insufficient.Label)

	writeHeart(t, ".", ",", 10, 0)
	_, _, err = Split(0.2, "target", 0)
	assert.ErrorAs(t, err, &insufficient)
}

func TestLoad(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Source.Delimiter = ";"
	cfg.Split.TestFraction = 0.5
	lines := lo.Map(heartRecords(4, 2), func(record []string, _ int) string {
		return strings.Join(record, ";")
	})
	train, test, err := Load(strings.NewReader(strings.Join(lines, "\n")), cfg)
	require.NoError(t, err)
	assertPartition(t, 6, train, test)
	assert.Equal(t, map[string]int{"1": 2, "0": 1}, test.CountLabels())
}

func TestLoad_Malformed(t *testing.T) {
	cfg := config.GetDefaultConfig()
	for _, text := range []string{"", "age,target\n", "age,target\n1,0\n2\n"} {
		_, _, err := Load(strings.NewReader(text), cfg)
		var parseErr *dataset.SourceParseError
		require.ErrorAs(t, err, &parseErr, text)
		assert.Equal(t, config.DefaultSourcePath, parseErr.Source)
		assert.True(t, errors.Is(err, errors.NotValid))
	}
}

func TestLoadTrainAndTest_NoStratify(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Source.Path = writeHeart(t, t.TempDir(), ",", 99, 1)
	cfg.Split.NoStratify = true
	train, test, err := LoadTrainAndTest(cfg)
	require.NoError(t, err)
	assertPartition(t, 100, train, test)
	assert.Equal(t, 20, test.Count())

	cfg.Split.NoStratify = false
	_, _, err = LoadTrainAndTest(cfg)
	var insufficient *dataset.InsufficientClassSamplesError
	assert.ErrorAs(t, err, &insufficient)
}

func TestSplitDataset_ZeroConfigStratifies(t *testing.T) {
	data, err := dataset.LoadRecords(heartRecords(60, 40), "target")
	require.NoError(t, err)
	train, test, err := SplitDataset(data, config.SplitConfig{TestFraction: 0.2})
	require.NoError(t, err)
	assertPartition(t, 100, train, test)
	assert.Equal(t, map[string]int{"1": 12, "0": 8}, test.CountLabels())

	// a single row class is never split without stratification
	data, err = dataset.LoadRecords(heartRecords(99, 1), "target")
	require.NoError(t, err)
	_, _, err = SplitDataset(data, config.SplitConfig{TestFraction: 0.2})
	var insufficient *dataset.InsufficientClassSamplesError
	assert.ErrorAs(t, err, &insufficient)
}

func TestLoadTrainAndTest_FileURL(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Source.Path = "file://" + writeHeart(t, t.TempDir(), ",", 60, 40)
	_, test, err := LoadTrainAndTest(cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, test.Count())
}

func TestLoadTrainAndTest_UnsupportedScheme(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Source.Path = "ftp://example.com/heart.csv"
	_, _, err := LoadTrainAndTest(cfg)
	var parseErr *dataset.SourceParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, cfg.Source.Path, parseErr.Source)
}

func TestLoadTrainAndTest_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heart.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE heart (age INTEGER, sex INTEGER, chol REAL, target INTEGER)`)
	require.NoError(t, err)
	for _, record := range heartRecords(30, 20)[1:] {
		_, err = db.Exec(`INSERT INTO heart VALUES (?, ?, ?, ?)`, record[0], record[1], record[2], record[3])
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	cfg := config.GetDefaultConfig()
	cfg.Source.Path = "sqlite://" + path
	cfg.Source.Table = "heart"
	train, test, err := LoadTrainAndTest(cfg)
	require.NoError(t, err)
	assertPartition(t, 50, train, test)
	assert.Equal(t, map[string]int{"1": 6, "0": 4}, test.CountLabels())

	cfg.Source.Table = "patients"
	_, _, err = LoadTrainAndTest(cfg)
	var notFound *dataset.SourceNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = OpenSource(cfg)
	var parseErr *dataset.SourceParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestLoadFolds(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Source.Path = writeHeart(t, t.TempDir(), ",", 30, 20)
	cfg.Split.Folds = 5
	folds, err := LoadFolds(cfg)
	require.NoError(t, err)
	require.Len(t, folds, 5)
	var tested []int
	for _, fold := range folds {
		assertPartition(t, 50, fold.Train, fold.Test)
		assert.Equal(t, map[string]int{"1": 6, "0": 4}, fold.Test.CountLabels())
		tested = append(tested, fold.Test.Index...)
	}
	assert.ElementsMatch(t, lo.Range(50), tested)
}
