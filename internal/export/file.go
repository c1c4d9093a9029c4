package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatCSV   = "csv"
)

// WriterFunc renders a result list.
type WriterFunc func(io.Writer, []model.LeadResult) error

// ForFormat returns the writer for a named format. csv is the full column
// set and an empty name means table.
func ForFormat(format string) (WriterFunc, error) {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return WriteTable, nil
	case FormatJSON:
		return WriteJSON, nil
	case FormatYAML, "yml":
		return WriteYAML, nil
	case FormatCSV:
		return WriteFullCSV, nil
	default:
		return nil, eris.Errorf("export: unsupported format %q", format)
	}
}

// ForFile returns the writer matching the extension of path (.csv, .xlsx,
// .json, .yaml or .yml).
func ForFile(path string) (WriterFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteFullCSV, nil
	case ".xlsx":
		return WriteXLSX, nil
	case ".json":
		return WriteJSON, nil
	case ".yaml", ".yml":
		return WriteYAML, nil
	default:
		return nil, eris.Errorf("export: unsupported file extension for %s", path)
	}
}

// Write renders results in the named format.
func Write(w io.Writer, format string, results []model.LeadResult) error {
	write, err := ForFormat(format)
	if err != nil {
		return err
	}
	return write(w, results)
}

// SaveFile writes results to path, choosing the encoding from the file
// extension.
func SaveFile(path string, results []model.LeadResult) error {
	write, err := ForFile(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}
