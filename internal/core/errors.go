package core

import (
	"errors"
	"fmt"
)

var (
	ErrSourceMissing  = errors.New("data source not found")
	ErrMissingColumn  = errors.New("required column missing")
	ErrEmptySheet     = errors.New("sheet has no header row")
	ErrEmptySelection = errors.New("no unit selected")
	ErrUnknownChart   = errors.New("unknown chart")
)

// DataLoadError reports that the dataset could not be loaded. It is fatal
// for a render pass: no chart may be drawn without a table.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load data from %q: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// NewDataLoadError wraps err unless it already is a DataLoadError.
func NewDataLoadError(source string, err error) error {
	var dle *DataLoadError
	if errors.As(err, &dle) {
		return err
	}
	return &DataLoadError{Source: source, Err: err}
}

// Warning is a non-fatal condition attached to a computed view.
type Warning struct {
	Code    string `json:"code"`
	Section string `json:"section"`
	Message string `json:"message"`
}

// EmptySelectionWarning is raised when the user filtered every unit out.
func EmptySelectionWarning(section string) Warning {
	return Warning{
		Code:    "empty_selection",
		Section: section,
		Message: "Please select at least one unit to view stats.",
	}
}

// NoDataWarning is raised when a section has nothing to plot.
func NoDataWarning(section string) Warning {
	return Warning{
		Code:    "no_data",
		Section: section,
		Message: "No data available for the current selection.",
	}
}
