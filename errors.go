package labelgen

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange - the start of the range is after its end.
	ErrInvalidRange = errors.New("invalid range")
	// ErrUnknownTemplate - no template with this name in the catalog.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrEncoding - the symbology cannot encode the text.
	ErrEncoding = errors.New("barcode encoding failed")
)

// RangeError is returned by Compose when start > end.
type RangeError struct {
	Start, End int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: start %d is greater than end %d", e.Start, e.End)
}

func (e *RangeError) Is(target error) bool { return target == ErrInvalidRange }

// UnknownTemplateError names the template that was not found.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown template %q", e.Name)
}

func (e *UnknownTemplateError) Is(target error) bool { return target == ErrUnknownTemplate }

// EncodingError wraps the encoder failure for one text value.
type EncodingError struct {
	Text string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.Text, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }
