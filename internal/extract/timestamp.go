package extract

import (
	"fmt"

	"github.com/araddon/dateparse"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

// timestampSourceAttr is the attribute a grok/query extraction step must
// populate for normalization to run (spec §4.4 step 5).
const timestampSourceAttr = "timestamp_to_transform"

// timestampAttr is where the normalized RFC3339 value is written.
const timestampAttr = "timestamp"

// normalizeTimestamp parses acc[timestamp_to_transform] with a fuzzy
// layout detector. A bare value missing a timezone designator
// (dateparse's most common failure on log timestamps) is retried once
// with a "Z" suffix appended before giving up. On success the source
// field is replaced by the normalized RFC3339 timestamp; on failure both
// fields are left as they were, this entry simply has no timestamp.
func normalizeTimestamp(acc map[string]any, log logging.Logger) {
	raw, ok := acc[timestampSourceAttr]
	if !ok {
		return
	}
	s, ok := raw.(string)
	if !ok {
		return
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		t, err = dateparse.ParseAny(s + "Z")
	}
	if err != nil {
		log.Warn("timestamp_to_transform did not parse", logging.String("value", s), logging.String("error", fmt.Sprint(err)))
		return
	}

	delete(acc, timestampSourceAttr)
	acc[timestampAttr] = t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
