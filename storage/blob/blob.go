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

package blob

import (
	"io"

	"github.com/gorse-io/stratify/config"
	"github.com/gorse-io/stratify/storage"
	"github.com/juju/errors"
)

// Reader opens named objects for reading. Implementations report missing
// objects with errors.NotFound.
type Reader interface {
	Open(name string) (io.ReadCloser, error)
}

// Open opens the blob source at path using the credentials in cfg.
func Open(path string, cfg *config.Config) (io.ReadCloser, error) {
	location, err := storage.ParseLocation(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var reader Reader
	switch location.Scheme {
	case "":
		reader = NewPOSIX("")
	case "s3":
		if reader, err = NewS3(cfg.S3, location.Bucket, ""); err != nil {
			return nil, errors.Trace(err)
		}
	case "gs":
		gcs, err := NewGCS(cfg.GCS, location.Bucket, "")
		if err != nil {
			return nil, errors.Trace(err)
		}
		r, err := gcs.Open(location.Key)
		if err != nil {
			_ = gcs.Close()
			return nil, err
		}
		return &clientReader{ReadCloser: r, client: gcs}, nil
	case "azblob":
		if reader, err = NewAzureBlob(cfg.Azure, location.Bucket, ""); err != nil {
			return nil, errors.Trace(err)
		}
	default:
		return nil, errors.NotSupportedf("blob scheme %s", location.Scheme)
	}
	return reader.Open(location.Key)
}

// clientReader closes the client that opened it after the object.
type clientReader struct {
	io.ReadCloser
	client io.Closer
}

func (r *clientReader) Close() error {
	if err := r.ReadCloser.Close(); err != nil {
		_ = r.client.Close()
		return errors.Trace(err)
	}
	return errors.Trace(r.client.Close())
}
