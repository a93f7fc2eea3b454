package decode

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// decodeJSONStream implements spec §4.3 "json_stream": the input is a
// concatenation of top-level JSON values with no delimiter requirement.
// Each top-level value is read whole (it is a single log-shipping batch,
// not the hundreds-of-megabytes object itself), then, when the rule
// declares log_entries_key, its sub-records are yielded individually
// with Parent set to the enclosing object (spec §4.4 step 4, §4.5).
func decodeJSONStream(r io.Reader, rule *rules.ProcessingRule, visit Visit) error {
	iter := jsoniter.Parse(jsoniter.ConfigDefault, r, jsonBufSize)

	ordinal := 0
	for {
		if iter.WhatIsNext() == jsoniter.InvalidValue {
			break
		}
		var top map[string]any
		iter.ReadVal(&top)
		if iter.Error != nil {
			if iter.Error == io.EOF {
				break
			}
			return fmt.Errorf("%w: %v", ErrMalformedStructuredEntry, iter.Error)
		}

		if !rule.HasSubRecords() {
			if !passesFilter(rule, top) {
				continue
			}
			ordinal++
			if err := visit(Entry{Ordinal: ordinal, Data: top}); err != nil {
				return err
			}
			continue
		}

		subRecords, ok := lookupPath(top, rule.LogEntriesKey)
		if !ok {
			continue
		}
		list, ok := subRecords.([]any)
		if !ok {
			return fmt.Errorf("%w: log_entries_key %q is not a list", ErrMalformedStructuredEntry, rule.LogEntriesKey)
		}
		for _, item := range list {
			sub, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: sub-record at %q is not an object", ErrMalformedStructuredEntry, rule.LogEntriesKey)
			}
			if !passesFilter(rule, sub) {
				continue
			}
			ordinal++
			if err := visit(Entry{Ordinal: ordinal, Data: sub, Parent: top}); err != nil {
				return err
			}
		}
	}
	return nil
}

// passesFilter implements filter_object_key/filter_object_value (spec
// §3): when both are set, an object whose value at filter_object_key
// doesn't equal filter_object_value is skipped.
func passesFilter(rule *rules.ProcessingRule, obj map[string]any) bool {
	if rule.FilterObjectKey == "" || rule.FilterObjectValue == "" {
		return true
	}
	v, ok := lookupPath(obj, rule.FilterObjectKey)
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == rule.FilterObjectValue
}

// lookupPath resolves a dotted path ("a.b.c") against nested
// map[string]any objects.
func lookupPath(obj map[string]any, dotted string) (any, bool) {
	cur := any(obj)
	for _, seg := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
