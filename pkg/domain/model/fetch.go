package model

// FetchResult holds the raw bytes of a successful hub download. It is
// transient and never persisted.
type FetchResult struct {
	Bytes           []byte
	StatusCode      int
	FinalURL        string // URL that actually succeeded
	ContentType     string
	ContentEncoding string
}

// FetchAttempt records one tried URL for failure diagnostics
type FetchAttempt struct {
	URL           string
	Status        int    // 0 when the request itself failed
	Authenticated bool   // whether an Authorization header was sent
	Hint          string // diagnostic header or transport error, if any
}
