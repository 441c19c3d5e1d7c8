package domain

import "errors"

var (
	// ErrInvalidPhone indicates the raw phone number does not normalize to the
	// canonical pattern.
	ErrInvalidPhone = errors.New("invalid phone number format")
	// ErrColumnNotInSchema indicates a configured directory column is absent
	// from the sheet header.
	ErrColumnNotInSchema = errors.New("column not in directory schema")
	// ErrConfirmTokenMissing indicates the file store served an interstitial
	// HTML page with no extractable confirmation token.
	ErrConfirmTokenMissing = errors.New("confirmation token missing")
)

// LookupError is an infrastructure-level failure reaching the directory.
type LookupError struct {
	Op  string
	Err error
}

func (e *LookupError) Error() string { return "directory lookup: " + e.Op + ": " + e.Err.Error() }
func (e *LookupError) Unwrap() error { return e.Err }

// LocatorError is an infrastructure-level failure reaching the file store.
type LocatorError struct {
	Op  string
	Err error
}

func (e *LocatorError) Error() string { return "document locate: " + e.Op + ": " + e.Err.Error() }
func (e *LocatorError) Unwrap() error { return e.Err }

// DownloadError is a failure while resolving a download link into bytes.
type DownloadError struct {
	Op  string
	Err error
}

func (e *DownloadError) Error() string { return "document download: " + e.Op + ": " + e.Err.Error() }
func (e *DownloadError) Unwrap() error { return e.Err }

// DispatchError is a gateway transport failure, timeout, or a gateway
// response that does not assert success.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string { return "gateway dispatch: " + e.Op + ": " + e.Err.Error() }
func (e *DispatchError) Unwrap() error { return e.Err }
