// Package shape implements the Record Shaper (spec §4.5): it turns a
// decoded entry and its extracted attributes into the final record
// handed to a Sink, applying forwarding-rule annotations, context
// attributes, the region fallback, content assembly and truncation, and
// the content-fingerprint substitution.
package shape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/nimbusforge/s3logforwarder/internal/decode"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// maxContentBytes is the content-attribute cap (spec §4.5).
const maxContentBytes = 8192

const truncationMarker = "[TRUNCATED]"

// Shaper assembles the final outbound record.
type Shaper struct {
	forwarderARN string
	metrics      *metrics.Metrics
}

func New(forwarderARN string, m *metrics.Metrics) *Shaper {
	return &Shaper{forwarderARN: forwarderARN, metrics: m}
}

// Shape builds the record for one entry. bucket/key/region describe the
// notification the entry came from; attrs is the Attribute Extractor's
// output for this entry.
func (s *Shaper) Shape(entry decode.Entry, fwd *rules.ForwardingRule, rule *rules.ProcessingRule, attrs map[string]any, bucket, key, region string) map[string]any {
	record := map[string]any{}

	for k, v := range fwd.Annotations {
		record[k] = v
	}

	record["log.source.bucket"] = bucket
	record["log.source.key"] = key
	if s.forwarderARN != "" {
		record["cloud.log_forwarder"] = s.forwarderARN
	}

	for k, v := range attrs {
		record[k] = v
	}

	if _, ok := record["aws.region"]; !ok && region != "" {
		record["aws.region"] = region
	}

	content := s.content(entry, rule)
	if len(content) > maxContentBytes {
		content = content[:maxContentBytes-len(truncationMarker)] + truncationMarker
		s.metrics.LogMessagesTrimmed.Inc()
	}

	if rule.SkipContentAttribute {
		// spec §3 invariant 1 / §4.5 step 7: content becomes the string
		// form of a stable hash of the pre-stripping attribute set, not
		// a hash of the rendered content, and content remains mandatory.
		record["content"] = strconv.FormatUint(hashAttributes(record), 10)
	} else {
		record["content"] = content
	}

	return record
}

// hashAttributes computes a stable 64-bit hash of an attribute map by
// hashing its sorted key=value pairs, so map iteration order never
// changes the result.
func hashAttributes(attrs map[string]any) uint64 {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", attrs[k])
		b.WriteByte('\n')
	}
	return xxhash.Sum64String(b.String())
}

// content renders the entry body: the raw line for text, a compact JSON
// encoding of the structured object for json/json_stream.
func (s *Shaper) content(entry decode.Entry, rule *rules.ProcessingRule) string {
	if !entry.IsStructured() {
		return entry.Text
	}
	b, err := json.Marshal(entry.Data)
	if err != nil {
		return ""
	}
	return string(b)
}
