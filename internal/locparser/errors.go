package locparser

import "fmt"

// MalformedRecordError reports a mandatory field that could not be parsed.
// Row is the 1-based data row; Row 0 refers to the header.
type MalformedRecordError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("header: %v", e.Err)
	}
	return fmt.Sprintf("row %d: field %q (%q): %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// EmptyDatasetError is returned when a source holds no records at all.
// Time scales over an empty dataset have no domain, so this is never
// turned into an empty commit list.
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	if e.Source == "" {
		return "dataset is empty"
	}
	return fmt.Sprintf("dataset %s is empty", e.Source)
}
