package ncaacom

import (
	"errors"
	"fmt"
)

// ErrorKind classifies scrape failures so callers can choose to log, notify or continue.
type ErrorKind string

const (
	KindPageLoad           ErrorKind = "page_load_failure"
	KindNoGames            ErrorKind = "no_games_found"
	KindPageStructure      ErrorKind = "page_structure_mismatch"
	KindPageUnavailable    ErrorKind = "page_unavailable"
	KindIncompleteTeamData ErrorKind = "incomplete_team_data"
	KindExtraction         ErrorKind = "extraction_error"
	KindWrite              ErrorKind = "write_failure"
)

// ScrapeError is returned by every scraping step.
type ScrapeError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, url string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, URL: url, Err: err}
}

// KindOf returns the kind of a ScrapeError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Retryable reports whether the failure may succeed on another attempt.
func Retryable(err error) bool {
	return KindOf(err) == KindPageLoad
}
