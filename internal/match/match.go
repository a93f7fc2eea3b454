// Package match implements the Matcher (spec §4.2): given (bucket, key),
// select at most one forwarding rule and, if matched, exactly one
// processing rule. Matching is read-only and idempotent.
package match

import (
	"regexp"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// Matcher selects rules from an immutable Rule Store.
type Matcher struct {
	store *rules.Store
}

func New(store *rules.Store) *Matcher {
	return &Matcher{store: store}
}

// Forwarding returns the first forwarding rule (in document order) whose
// key_pattern fully matches key. It tests bucket's own rule list; only
// when bucket itself has no rules registered at all does it fall back to
// the "default" pseudo-bucket (spec §4.2 "if the bucket is not
// present") -- a bucket with rules that simply don't match key does not
// fall back. ok is false if nothing matches.
func (m *Matcher) Forwarding(bucket, key string) (*rules.ForwardingRule, bool) {
	if m.store.Forwarding.HasBucket(bucket) {
		return firstMatch(m.store.Forwarding.Bucket(bucket), key)
	}
	if bucket != rules.DefaultBucket {
		return firstMatch(m.store.Forwarding.Bucket(rules.DefaultBucket), key)
	}
	return nil, false
}

func firstMatch(candidates []*rules.ForwardingRule, key string) (*rules.ForwardingRule, bool) {
	for _, r := range candidates {
		if fullyMatches(r.KeyPattern, key) {
			return r, true
		}
	}
	return nil, false
}

// fullyMatches reports whether pattern matches key end to end, not just
// somewhere within it (spec §4.2 "fully matches"): regexp.MatchString
// alone would accept an unanchored partial match.
func fullyMatches(pattern *regexp.Regexp, key string) bool {
	anchored := regexp.MustCompile(`^(?:` + pattern.String() + `)$`)
	return anchored.MatchString(key)
}

// Processing returns the processing rule for fwd's declared source kind
// (spec §4.2). For "generic"/"custom", it looks up by source_name,
// falling back to generic/generic on a miss. For "aws", it ignores
// source_name and scans the built-in aws rules by key_path_pattern,
// falling back to generic/generic unconditionally on no match (spec §9
// item (d): no sentinel, plain fall-through).
func (m *Matcher) Processing(fwd *rules.ForwardingRule, key string) *rules.ProcessingRule {
	switch fwd.SourceKind {
	case rules.SourceAWS:
		for _, r := range m.store.Processing.AWSRules() {
			if r.KeyPathPattern != nil && r.KeyPathPattern.MatchString(key) {
				return r
			}
		}
		return m.generic()
	default:
		if r, ok := m.store.Processing.Lookup(fwd.SourceKind, fwd.SourceName); ok {
			return r
		}
		return m.generic()
	}
}

func (m *Matcher) generic() *rules.ProcessingRule {
	r, ok := m.store.Processing.Lookup(rules.SourceGeneric, "generic")
	if !ok {
		// The Store always seeds this built-in; a miss here means the
		// Store was constructed incorrectly, not a runtime condition to
		// recover from gracefully.
		panic("match: generic/generic processing rule is not registered")
	}
	return r
}
