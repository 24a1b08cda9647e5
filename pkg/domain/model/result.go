package model

// RowError attributes one recovered failure to its row index
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarizes one import run. It is created empty by the
// aggregator, owned by it for the run's lifetime, and returned once.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// NewImportResult returns an empty result with a non-nil error list so the
// JSON summary always carries an array
func NewImportResult() *ImportResult {
	return &ImportResult{Errors: []RowError{}}
}
