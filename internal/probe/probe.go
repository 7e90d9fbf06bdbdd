// Package probe gathers the optional web sections of an enriched record.
// Probes never return errors: every failure becomes a Failed section with a
// short reason, so one broken source never costs the record.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/salgsmotor/internal/fetcher"
)

// Failure reasons shared across probes.
const (
	ReasonNotConfigured         = "not configured"
	ReasonNoData                = "no data"
	ReasonInvalidDomain         = "invalid domain format"
	ReasonCapabilityUnavailable = "capability unavailable"
	ReasonCircuitOpen           = "circuit open"
)

// Prefixes of failures raised by a shared upstream service.
const (
	newsFailedPrefix = "news search failed: "
	aiFailedPrefix   = "AI analysis failed: "
)

// SourceFailure reports whether reason says the queried service itself is
// failing: timeouts, transport errors, anti-bot pages, 5xx and 429. Outcomes
// of a single organization, such as a 404 for a company without a page or a
// page without data, are not source failures.
func SourceFailure(reason string) bool {
	switch {
	case reason == "timeout",
		strings.HasPrefix(reason, "blocked: "),
		strings.HasPrefix(reason, "fetch failed: "),
		strings.HasPrefix(reason, newsFailedPrefix),
		strings.HasPrefix(reason, aiFailedPrefix):
		return true
	}
	var code int
	if _, err := fmt.Sscanf(reason, "unexpected status %d", &code); err == nil {
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}
	return false
}

// fetchReason turns a fetcher error into a Failed reason.
func fetchReason(err error) string {
	var blocked *fetcher.BlockedError
	switch {
	case errors.As(err, &blocked):
		return "blocked: " + string(blocked.Type)
	case errors.Is(err, fetcher.ErrUnsafeURL):
		return "unsafe url"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "fetch failed: " + err.Error()
}

func statusReason(code int) string {
	return fmt.Sprintf("unexpected status %d", code)
}

// collapseSpace joins all whitespace runs into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
