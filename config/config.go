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

package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	DefaultSourcePath   = "heart.csv"
	DefaultLabel        = "target"
	DefaultTestFraction = 0.2
)

// Config is the configuration for stratify.
type Config struct {
	Source SourceConfig    `mapstructure:"source"`
	Split  SplitConfig     `mapstructure:"split"`
	S3     S3Config        `mapstructure:"s3"`
	GCS    GCSConfig       `mapstructure:"gcs"`
	Azure  AzureBlobConfig `mapstructure:"azure"`
}

// SourceConfig locates the dataset. Path is a local file path or a URL whose
// scheme selects the backend (s3://, gs://, azblob://, sqlite://, mysql://,
// postgres://, clickhouse://).
type SourceConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	Delimiter string `mapstructure:"delimiter" validate:"len=1"`
	Table     string `mapstructure:"table"`
	Query     string `mapstructure:"query"`
}

// SplitConfig controls how rows are partitioned. The zero value splits
// stratified by label class.
type SplitConfig struct {
	Label        string  `mapstructure:"label" validate:"required"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
	NoStratify   bool    `mapstructure:"no_stratify"`
	Folds        int     `mapstructure:"folds" validate:"gte=0,ne=1"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:      DefaultSourcePath,
			Delimiter: ",",
		},
		Split: SplitConfig{
			Label:        DefaultLabel,
			TestFraction: DefaultTestFraction,
		},
		S3: S3Config{
			UseSSL: true,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [source]
	v.SetDefault("source.path", defaultConfig.Source.Path)
	v.SetDefault("source.delimiter", defaultConfig.Source.Delimiter)
	v.SetDefault("source.table", defaultConfig.Source.Table)
	v.SetDefault("source.query", defaultConfig.Source.Query)
	// [split]
	v.SetDefault("split.label", defaultConfig.Split.Label)
	v.SetDefault("split.test_fraction", defaultConfig.Split.TestFraction)
	v.SetDefault("split.seed", defaultConfig.Split.Seed)
	v.SetDefault("split.no_stratify", defaultConfig.Split.NoStratify)
	v.SetDefault("split.folds", defaultConfig.Split.Folds)
	// [s3]
	v.SetDefault("s3.endpoint", defaultConfig.S3.Endpoint)
	v.SetDefault("s3.access_key_id", defaultConfig.S3.AccessKeyID)
	v.SetDefault("s3.secret_access_key", defaultConfig.S3.SecretAccessKey)
	v.SetDefault("s3.region", defaultConfig.S3.Region)
	v.SetDefault("s3.use_ssl", defaultConfig.S3.UseSSL)
	// [gcs]
	v.SetDefault("gcs.credentials_file", defaultConfig.GCS.CredentialsFile)
	v.SetDefault("gcs.endpoint", defaultConfig.GCS.Endpoint)
	// [azure]
	v.SetDefault("azure.connection_string", defaultConfig.Azure.ConnectionString)
	v.SetDefault("azure.account_name", defaultConfig.Azure.AccountName)
	v.SetDefault("azure.account_key", defaultConfig.Azure.AccountKey)
	v.SetDefault("azure.endpoint", defaultConfig.Azure.Endpoint)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"source.path", "STRATIFY_SOURCE_PATH"},
	{"source.delimiter", "STRATIFY_SOURCE_DELIMITER"},
	{"source.table", "STRATIFY_SOURCE_TABLE"},
	{"source.query", "STRATIFY_SOURCE_QUERY"},
	{"split.label", "STRATIFY_SPLIT_LABEL"},
	{"split.test_fraction", "STRATIFY_SPLIT_TEST_FRACTION"},
	{"split.seed", "STRATIFY_SPLIT_SEED"},
	{"split.no_stratify", "STRATIFY_SPLIT_NO_STRATIFY"},
	{"split.folds", "STRATIFY_SPLIT_FOLDS"},
	{"s3.endpoint", "STRATIFY_S3_ENDPOINT"},
	{"s3.access_key_id", "STRATIFY_S3_ACCESS_KEY_ID"},
	{"s3.secret_access_key", "STRATIFY_S3_SECRET_ACCESS_KEY"},
	{"s3.region", "STRATIFY_S3_REGION"},
	{"s3.use_ssl", "STRATIFY_S3_USE_SSL"},
	{"gcs.credentials_file", "STRATIFY_GCS_CREDENTIALS_FILE"},
	{"gcs.endpoint", "STRATIFY_GCS_ENDPOINT"},
	{"azure.connection_string", "STRATIFY_AZURE_CONNECTION_STRING"},
	{"azure.account_name", "STRATIFY_AZURE_ACCOUNT_NAME"},
	{"azure.account_key", "STRATIFY_AZURE_ACCOUNT_KEY"},
	{"azure.endpoint", "STRATIFY_AZURE_ENDPOINT"},
}

// LoadConfig loads configuration from a TOML or YAML file. An empty path
// loads defaults only. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks structural settings. The test fraction and the label
// column are checked against the dataset by the loader.
func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
	})
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := lo.Map(validationErrors, func(e validator.FieldError, _ int) string {
				return e.Translate(trans)
			})
			return errors.NewNotValid(nil, strings.Join(messages, "; "))
		}
		return errors.Trace(err)
	}
	return nil
}
