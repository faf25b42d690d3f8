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

package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/gorse-io/stratify/base/log"
	"github.com/gorse-io/stratify/cmd/version"
	"github.com/gorse-io/stratify/config"
	"github.com/gorse-io/stratify/dataset"
	"github.com/gorse-io/stratify/loader"
	"github.com/gorse-io/stratify/storage"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "stratify",
		Short:        "Stratified train/test split of tabular datasets.",
		SilenceUsage: true,
	}
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(newSplitCommand(), newVersionCommand())
	return rootCommand
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
		},
	}
}

func newSplitCommand() *cobra.Command {
	splitCommand := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset and print the rows of every class on each side",
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			log.SetLogger(cmd.Flags(), debug)
			defer func() { _ = log.Logger().Sync() }()

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return errors.Trace(err)
			}
			overrideConfig(cmd, cfg)
			log.Logger().Info("split dataset",
				zap.String("source", log.RedactURL(cfg.Source.Path)),
				zap.String("label", cfg.Split.Label),
				zap.Float64("test_fraction", cfg.Split.TestFraction),
				zap.Int64("seed", cfg.Split.Seed))

			if cfg.Split.Folds > 0 {
				folds, err := loader.LoadFolds(cfg)
				if err != nil {
					return err
				}
				return renderFolds(cmd.OutOrStdout(), folds)
			}

			var train, test *dataset.Subset
			if progress, _ := cmd.Flags().GetBool("progress"); progress && !storage.IsTableSource(cfg.Source.Path) {
				train, test, err = loadWithProgress(cfg)
			} else {
				train, test, err = loader.LoadTrainAndTest(cfg)
			}
			if err != nil {
				return err
			}
			return renderSplit(cmd.OutOrStdout(), train, test)
		},
	}
	splitCommand.Flags().String("source", "", "dataset path or URL")
	splitCommand.Flags().String("label", "", "label column")
	splitCommand.Flags().Float64("test-fraction", 0, "fraction of rows in the test set")
	splitCommand.Flags().Int64("seed", 0, "random seed")
	splitCommand.Flags().Bool("no-stratify", false, "split without keeping class frequencies")
	splitCommand.Flags().Int("folds", 0, "number of stratified folds")
	splitCommand.Flags().Bool("progress", false, "show read progress")
	return splitCommand
}

// overrideConfig applies flags set on the command line.
func overrideConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Path, _ = flags.GetString("source")
	}
	if flags.Changed("label") {
		cfg.Split.Label, _ = flags.GetString("label")
	}
	if flags.Changed("test-fraction") {
		cfg.Split.TestFraction, _ = flags.GetFloat64("test-fraction")
	}
	if flags.Changed("seed") {
		cfg.Split.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("no-stratify") {
		cfg.Split.NoStratify, _ = flags.GetBool("no-stratify")
	}
	if flags.Changed("folds") {
		cfg.Split.Folds, _ = flags.GetInt("folds")
	}
}

func loadWithProgress(cfg *config.Config) (train, test *dataset.Subset, err error) {
	r, err := loader.OpenSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	pbReader := progressbar.NewReader(r, progressbar.DefaultBytes(-1, "Reading "+log.RedactURL(cfg.Source.Path)))
	defer func() {
		if err := pbReader.Close(); err != nil {
			log.Logger().Warn("failed to close source", zap.Error(err))
		}
	}()
	return loader.Load(&pbReader, cfg)
}

func renderSplit(w io.Writer, train, test *dataset.Subset) error {
	trainCounts, testCounts := train.CountLabels(), test.CountLabels()
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Class", "Train", "Test", "Test %"})
	for _, label := range sortedLabels(trainCounts, testCounts) {
		if err := table.Append([]string{
			label,
			strconv.Itoa(trainCounts[label]),
			strconv.Itoa(testCounts[label]),
			percent(testCounts[label], trainCounts[label]+testCounts[label]),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Append([]string{
		"total",
		strconv.Itoa(train.Count()),
		strconv.Itoa(test.Count()),
		percent(test.Count(), train.Count()+test.Count()),
	}); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

func renderFolds(w io.Writer, folds []loader.Fold) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Fold", "Class", "Train", "Test"})
	for i, fold := range folds {
		trainCounts, testCounts := fold.Train.CountLabels(), fold.Test.CountLabels()
		for _, label := range sortedLabels(trainCounts, testCounts) {
			if err := table.Append([]string{
				strconv.Itoa(i),
				label,
				strconv.Itoa(trainCounts[label]),
				strconv.Itoa(testCounts[label]),
			}); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(table.Render())
}

func sortedLabels(counts ...map[string]int) []string {
	labels := lo.Uniq(lo.FlatMap(counts, func(c map[string]int, _ int) []string {
		return lo.Keys(c)
	}))
	slices.Sort(labels)
	return labels
}

func percent(part, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", 100*float64(part)/float64(total))
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
