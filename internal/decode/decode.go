// Package decode implements the Object Fetcher/Decoder (spec §4.3): it
// streams a possibly-gzipped object body and yields raw entries
// (lines for text, sub-objects for json/json_stream) without ever
// materializing the whole decompressed object in memory.
package decode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// ErrNonUTF8TextEntry is the poison-pill condition of spec §4.3: the
// whole object is dropped, the notification still succeeds.
var ErrNonUTF8TextEntry = errors.New("non-utf8 text entry")

// ErrMalformedStructuredEntry means the notification must be retried
// (spec §4.3, §7).
var ErrMalformedStructuredEntry = errors.New("malformed structured entry")

// Entry is one raw log entry handed to the Attribute Extractor (spec
// §4.4 "Input shapes"). Exactly one of Text/Data is set.
type Entry struct {
	Ordinal int
	Text    string         // set when the rule's log_format is "text"
	Data    map[string]any // set for "json"/"json_stream" (or a json_stream sub-record)
	Parent  map[string]any // the enclosing top-level object, only for json_stream sub-records
}

// IsStructured reports whether this entry carries a structured object
// rather than a text line.
func (e Entry) IsStructured() bool { return e.Data != nil }

// Visit is called once per yielded entry. Returning a non-nil error
// aborts decoding; io.EOF specifically has no special meaning here
// (unlike bufio.Scanner's convention) -- any error is just propagated.
type Visit func(Entry) error

// Decode streams r according to rule's log_format, calling visit once
// per entry in decoder order (spec §3 invariant 4, §4.3). r must already
// be positioned at the start of the (possibly store-side-compressed)
// object body; gzip framing implied by key/contentEncoding is applied
// here.
func Decode(r io.Reader, key, contentEncoding string, rule *rules.ProcessingRule, visit Visit) error {
	body, err := maybeGunzip(r, key, contentEncoding)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStructuredEntry, err)
	}

	if rule.Name == "cwl_to_fh" {
		// A second gzip layer wraps the whole CloudWatch-Logs-via-
		// Firehose stream (spec §4.3).
		body, err = gzip.NewReader(body)
		if err != nil {
			return fmt.Errorf("%w: cwl_to_fh inner gzip: %v", ErrMalformedStructuredEntry, err)
		}
	}

	switch rule.LogFormat {
	case rules.FormatText:
		return decodeText(body, rule, visit)
	case rules.FormatJSON:
		return decodeJSON(body, rule, visit)
	case rules.FormatJSONStream:
		return decodeJSONStream(body, rule, visit)
	default:
		return fmt.Errorf("decode: unknown log_format %q", rule.LogFormat)
	}
}

func maybeGunzip(r io.Reader, key, contentEncoding string) (io.Reader, error) {
	if strings.HasSuffix(key, ".gz") || contentEncoding == "gzip" {
		return gzip.NewReader(r)
	}
	return r, nil
}
