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

package table

import (
	"database/sql"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/gorse-io/stratify/base/log"
	"github.com/gorse-io/stratify/config"
	"github.com/gorse-io/stratify/storage"
	"github.com/juju/errors"
	"github.com/lib/pq"
	_ "github.com/mailru/go-clickhouse/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ReadRecords runs the configured query (or selects every column of the
// configured table) and returns the column names followed by one record per
// row. NULL values become empty strings.
func ReadRecords(path string, cfg config.SourceConfig) ([][]string, error) {
	driver, dataSourceName, err := resolve(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	query := cfg.Query
	if query == "" {
		if !identifier.MatchString(cfg.Table) {
			return nil, errors.NotValidf("table name %q", cfg.Table)
		}
		query = "SELECT * FROM " + cfg.Table
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Logger().Warn("failed to close database", zap.Error(err))
		}
	}()
	rows, err := db.Query(query)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, errors.NewNotFound(err, "table "+cfg.Table)
		}
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Trace(err)
	}
	records := [][]string{columns}
	values := make([]sql.NullString, len(columns))
	pointers := lo.Map(values, func(_ sql.NullString, i int) any {
		return &values[i]
	})
	for rows.Next() {
		if err = rows.Scan(pointers...); err != nil {
			return nil, errors.Trace(err)
		}
		records = append(records, lo.Map(values, func(v sql.NullString, _ int) string {
			return v.String
		}))
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return records, nil
}

func resolve(path string) (driver, dataSourceName string, err error) {
	switch {
	case strings.HasPrefix(path, storage.SQLitePrefix):
		name := path[len(storage.SQLitePrefix):]
		file, _, _ := strings.Cut(name, "?")
		if _, err = os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", "", errors.NewNotFound(err, "sqlite database "+file)
			}
			return "", "", errors.Trace(err)
		}
		// never write to the source
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "query_only(1)"},
		}); err != nil {
			return "", "", errors.Trace(err)
		}
		return "sqlite", path[len(storage.SQLitePrefix):], nil
	case strings.HasPrefix(path, storage.MySQLPrefix):
		return "mysql", path[len(storage.MySQLPrefix):], nil
	case strings.HasPrefix(path, storage.PostgresPrefix), strings.HasPrefix(path, storage.PostgreSQLPrefix):
		return "postgres", path, nil
	case strings.HasPrefix(path, storage.ClickhousePrefix):
		parsed, err := url.Parse(path)
		if err != nil {
			return "", "", errors.Trace(err)
		}
		parsed.Scheme = "http"
		return "chhttp", parsed.String(), nil
	}
	return "", "", errors.NotSupportedf("database %s", path)
}

func isUndefinedTable(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// ER_NO_SUCH_TABLE
		return mysqlErr.Number == 1146
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	message := err.Error()
	// sqlite, clickhouse UNKNOWN_TABLE
	return strings.Contains(message, "no such table") || strings.Contains(message, "Code: 60")
}
