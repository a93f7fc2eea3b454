package ship

import (
	"errors"
	"fmt"
)

// ErrThrottled is returned when the sink keeps responding 429 past the
// retry budget (spec §4.7).
var ErrThrottled = errors.New("sink throttled")

// ErrSpaceLimitReached is returned when the sink keeps responding 503
// past the retry budget (spec §4.7).
var ErrSpaceLimitReached = errors.New("sink ingest space limit reached")

// IngestionFailure is any other non-success response, carrying enough
// of the response to diagnose it without retrying blind.
type IngestionFailure struct {
	Status int
	Body   string
}

func (e *IngestionFailure) Error() string {
	return fmt.Sprintf("ingest failed: status %d: %s", e.Status, e.Body)
}
