// Package xlsx loads the purchases workbook with excelize, either from the
// local filesystem or from a gs://bucket/object URI.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"purchases/internal/core"
	ports "purchases/internal/sheets"

	"cloud.google.com/go/storage"
	"github.com/xuri/excelize/v2"
)

const gcsScheme = "gs://"

// Source reads a workbook on every Load. Callers cache the resulting table.
type Source struct {
	path  string
	sheet string
	// fetch is swapped in tests; it returns the raw workbook bytes.
	fetch func(ctx context.Context, path string) ([]byte, error)
}

var _ ports.TableSource = (*Source)(nil)

// New creates a workbook source. An empty sheet selects the first sheet.
func New(path, sheet string) *Source {
	return &Source{path: strings.TrimSpace(path), sheet: strings.TrimSpace(sheet), fetch: readWorkbook}
}

// SourceID is the workbook location plus the sheet, when one is configured.
func (s *Source) SourceID() string {
	if s.sheet == "" {
		return "xlsx:" + s.path
	}
	return "xlsx:" + s.path + "#" + s.sheet
}

// Load reads the workbook and builds the cleaned table.
func (s *Source) Load(ctx context.Context) (*core.Table, error) {
	if s.path == "" {
		return nil, core.NewDataLoadError(s.SourceID(), fmt.Errorf("%w: no workbook path configured", core.ErrSourceMissing))
	}
	data, err := s.fetch(ctx, s.path)
	if err != nil {
		return nil, core.NewDataLoadError(s.SourceID(), err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.NewDataLoadError(s.SourceID(), fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, core.NewDataLoadError(s.SourceID(), core.ErrEmptySheet)
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, core.NewDataLoadError(s.SourceID(), fmt.Errorf("read sheet %q: %w", sheet, err))
	}
	if len(rows) == 0 {
		return nil, core.NewDataLoadError(s.SourceID(), fmt.Errorf("%w: %q", core.ErrEmptySheet, sheet))
	}
	return ports.BuildTable(s.SourceID(), rows[0], rows[1:])
}

func readWorkbook(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, gcsScheme) {
		bucket, object, err := splitGCSPath(path)
		if err != nil {
			return nil, err
		}
		return downloadObject(ctx, bucket, object)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return data, nil
}

// splitGCSPath splits gs://bucket/path/to/object into its parts.
func splitGCSPath(uri string) (string, string, error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid gcs uri %q: want gs://bucket/object", uri)
	}
	return bucket, object, nil
}

func downloadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", core.ErrSourceMissing, bucketName, objectName)
		}
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}
