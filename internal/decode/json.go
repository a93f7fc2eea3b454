package decode

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

const jsonBufSize = 512 * 1024

// decodeJSON implements spec §4.3 "json": an incremental tokenizer yields
// one sub-object per element of the list at log_entries_key (or, if
// unset, per element of the top-level list). It never materializes the
// full document -- only one array element at a time.
func decodeJSON(r io.Reader, rule *rules.ProcessingRule, visit Visit) error {
	iter := jsoniter.Parse(jsoniter.ConfigDefault, r, jsonBufSize)

	ordinal := 0
	var err error
	if rule.LogEntriesKey == "" {
		err = streamArray(iter, visit, &ordinal)
	} else {
		err = navigateToArray(iter, strings.Split(rule.LogEntriesKey, "."), visit, &ordinal)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStructuredEntry, err)
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return fmt.Errorf("%w: %v", ErrMalformedStructuredEntry, iter.Error)
	}
	return nil
}

// navigateToArray descends through segments (an object-field path) and,
// on reaching the end, streams the array found there.
func navigateToArray(iter *jsoniter.Iterator, segments []string, visit Visit, ordinal *int) error {
	if len(segments) == 0 {
		return streamArray(iter, visit, ordinal)
	}
	target := segments[0]
	var inner error
	found := false
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field == target {
			found = true
			inner = navigateToArray(it, segments[1:], visit, ordinal)
			return inner == nil
		}
		it.Skip()
		return true
	})
	if inner != nil {
		return inner
	}
	if !found {
		return fmt.Errorf("log_entries_key segment %q not found", target)
	}
	return nil
}

func streamArray(iter *jsoniter.Iterator, visit Visit, ordinal *int) error {
	var inner error
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		var m map[string]any
		if err := it.ReadVal(&m); err != nil {
			inner = err
			return false
		}
		*ordinal++
		if err := visit(Entry{Ordinal: *ordinal, Data: m}); err != nil {
			inner = err
			return false
		}
		return true
	})
	return inner
}
