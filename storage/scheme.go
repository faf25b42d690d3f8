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

package storage

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

const (
	FilePrefix       = "file://"
	S3Prefix         = "s3://"
	GCSPrefix        = "gs://"
	AzureBlobPrefix  = "azblob://"
	MySQLPrefix      = "mysql://"
	PostgresPrefix   = "postgres://"
	PostgreSQLPrefix = "postgresql://"
	ClickhousePrefix = "clickhouse://"
	SQLitePrefix     = "sqlite://"
)

var tablePrefixes = []string{
	MySQLPrefix,
	PostgresPrefix,
	PostgreSQLPrefix,
	ClickhousePrefix,
	SQLitePrefix,
}

// IsTableSource reports whether path names a SQL database rather than a
// delimited text object.
func IsTableSource(path string) bool {
	return lo.SomeBy(tablePrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// Location is a blob source split into its parts. Scheme is empty for local
// files.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation parses a blob source path. Plain paths and file:// URLs
// resolve to local files.
func ParseLocation(path string) (Location, error) {
	switch {
	case strings.HasPrefix(path, FilePrefix):
		return Location{Key: path[len(FilePrefix):]}, nil
	case strings.HasPrefix(path, S3Prefix), strings.HasPrefix(path, GCSPrefix), strings.HasPrefix(path, AzureBlobPrefix):
		parsed, err := url.Parse(path)
		if err != nil {
			return Location{}, errors.Trace(err)
		}
		key := strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" || key == "" {
			return Location{}, errors.NotValidf("blob location %q", path)
		}
		return Location{Scheme: parsed.Scheme, Bucket: parsed.Host, Key: key}, nil
	case strings.Contains(path, "://"):
		return Location{}, errors.NotSupportedf("source %q", path)
	default:
		return Location{Key: path}, nil
	}
}

func AppendURLParams(rawURL string, params []lo.Tuple2[string, string]) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	q := parsed.Query()
	for _, tuple := range params {
		q.Add(tuple.A, tuple.B)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
