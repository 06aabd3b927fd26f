package customerrors

import (
	"errors"
	"fmt"
)

var (
	ErrTickerEmpty   = errors.New("Ticker is empty")
	ErrDatacodeEmpty = errors.New("Datacode is empty")
	ErrDateEmpty     = errors.New("Date is empty")

	ErrRedirectNotAllowed = errors.New("redirect returned but not allowed")
)

// RangeError reports a multi-cell range passed where a scalar is required.
// The spreadsheet host hands ranges through as nested tuples, which no
// argument of this extension accepts.
type RangeError struct {
	Argument string
}

func (e RangeError) Error() string {
	return fmt.Sprintf("Cell range not allowed for %s", e.Argument)
}

// HttpError reports a final response status >= 400 after redirects.
type HttpError struct {
	URL    string
	Status int
}

func (e HttpError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

// FetchError tags a transport-level failure with the originating URL.
type FetchError struct {
	URL string
	Err error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e FetchError) Unwrap() error {
	return e.Err
}
