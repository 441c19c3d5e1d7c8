package domain

// DirectoryRecord is one matched row from the spreadsheet directory. Column
// access goes through Value so that a column missing from the sheet schema
// (a configuration defect) is distinguishable from an empty cell (a data fact).
type DirectoryRecord struct {
	columns map[string]string
	schema  map[string]struct{}
}

// NewDirectoryRecord builds a record from the sheet header and one row's values.
func NewDirectoryRecord(header []string, values map[string]string) *DirectoryRecord {
	schema := make(map[string]struct{}, len(header))
	for _, col := range header {
		schema[col] = struct{}{}
	}
	if values == nil {
		values = map[string]string{}
	}
	return &DirectoryRecord{columns: values, schema: schema}
}

// Value returns the cell value for column. An empty string with a nil error
// means the row simply has no value there; ErrColumnNotInSchema means the
// sheet itself does not carry the column.
func (r *DirectoryRecord) Value(column string) (string, error) {
	if _, ok := r.schema[column]; !ok {
		return "", &LookupError{Op: "column " + column, Err: ErrColumnNotInSchema}
	}
	return r.columns[column], nil
}

// DocumentRef is a located document in the file store.
type DocumentRef struct {
	ID           string
	Name         string
	DownloadLink string
}

// FetchedDocument is a document spooled to local storage, ready to dispatch.
// Ownership transfers to the dispatcher for one send attempt; the orchestrator
// removes LocalPath on every exit path afterwards.
type FetchedDocument struct {
	LocalPath string
	FileName  string
	SizeBytes int64
}

// DeliveryResult is the outcome of one gateway send.
type DeliveryResult struct {
	Success  bool
	Response map[string]interface{}
}

// PipelineOutcome is the HTTP-facing result of one pipeline invocation.
type PipelineOutcome struct {
	Status  int
	Success bool
	Message string
	Data    interface{}
	// Err carries the underlying failure for logging; it is never echoed
	// verbatim to the caller.
	Err error
}
