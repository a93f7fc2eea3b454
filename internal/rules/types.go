// Package rules implements the Rule Store (spec §4.1): loading,
// validating, and indexing forwarding and processing rules.
package rules

import (
	"regexp"

	"github.com/Jeffail/grok"
)

// SourceKind enumerates the processing-rule/forwarding-rule source kinds.
type SourceKind string

const (
	SourceAWS     SourceKind = "aws"
	SourceGeneric SourceKind = "generic"
	SourceCustom  SourceKind = "custom"
)

// LogFormat enumerates the processing-rule log formats.
type LogFormat string

const (
	FormatText       LogFormat = "text"
	FormatJSON       LogFormat = "json"
	FormatJSONStream LogFormat = "json_stream"
)

// ForwardingRule identifies which objects to forward and where (spec §3).
type ForwardingRule struct {
	Name        string
	KeyPattern  *regexp.Regexp
	SourceKind  SourceKind
	SourceName  string
	Annotations map[string]string
	Sinks       []string
}

// AttrMapping is the bulk top-level-JSON-to-attribute mapping (spec §3,
// `attr_mapping_from_top_level_json`): wrap every passed-filter key of the
// enclosing object with Prefix/Postfix.
type AttrMapping struct {
	Prefix  string
	Postfix string
	Include map[string]bool // mutually exclusive with Exclude
	Exclude map[string]bool
}

// ProcessingRule describes how to parse and enrich a matched object (spec §3).
type ProcessingRule struct {
	Name       string
	SourceKind SourceKind

	KeyPathPattern *regexp.Regexp // aws-only: selects the specific service rule

	LogFormat      LogFormat
	LogEntriesKey  string
	FilterObjectKey   string
	FilterObjectValue string

	Annotations        map[string]string
	AttrFromKeyName    map[string]*regexp.Regexp
	GrokPattern        *grok.Grok
	GrokPatternSource  string
	QueryExpressions   map[string]string
	AttrsFromTopLevelJSON map[string]string
	AttrMapping        *AttrMapping

	SkipHeaderLines       int
	SkipContentAttribute  bool
}

// HasSubRecords reports whether this rule's json_stream entries carry a
// nested list of sub-records at LogEntriesKey (spec §4.4 step 4 context).
func (p *ProcessingRule) HasSubRecords() bool {
	return p.LogFormat == FormatJSONStream && p.LogEntriesKey != ""
}

// ForwardingIndex is bucket -> ordered list of rules, kept in the document
// order each bucket's rules were loaded in (the Matcher's tie-break, spec
// §4.2). There is no lookup by rule name.
type ForwardingIndex struct {
	byBucket map[string][]*ForwardingRule
}

func NewForwardingIndex() *ForwardingIndex {
	return &ForwardingIndex{byBucket: map[string][]*ForwardingRule{}}
}

func (idx *ForwardingIndex) Add(bucket string, r *ForwardingRule) {
	idx.byBucket[bucket] = append(idx.byBucket[bucket], r)
}

// Bucket returns the ordered rule list for bucket, or nil if unknown.
func (idx *ForwardingIndex) Bucket(bucket string) []*ForwardingRule {
	return idx.byBucket[bucket]
}

// HasBucket reports whether bucket has any rules registered at all (spec
// §4.2's "default" fallback triggers only when the bucket itself is not
// present, not merely when none of its rules match).
func (idx *ForwardingIndex) HasBucket(bucket string) bool {
	_, ok := idx.byBucket[bucket]
	return ok
}

// DefaultBucket is the pseudo-bucket name used as a fallback (spec §4.2).
const DefaultBucket = "default"

// ProcessingIndex is source_kind -> rule name -> rule, plus an ordered
// slice per kind (map iteration order is unspecified in Go, but the
// Matcher's aws-rule scan must be load-order stable, spec §4.2).
type ProcessingIndex struct {
	bySourceKind map[SourceKind]map[string]*ProcessingRule
	ordered      map[SourceKind][]*ProcessingRule
}

func NewProcessingIndex() *ProcessingIndex {
	return &ProcessingIndex{
		bySourceKind: map[SourceKind]map[string]*ProcessingRule{},
		ordered:      map[SourceKind][]*ProcessingRule{},
	}
}

func (idx *ProcessingIndex) Add(r *ProcessingRule) {
	m, ok := idx.bySourceKind[r.SourceKind]
	if !ok {
		m = map[string]*ProcessingRule{}
		idx.bySourceKind[r.SourceKind] = m
	}
	if _, exists := m[r.Name]; !exists {
		idx.ordered[r.SourceKind] = append(idx.ordered[r.SourceKind], r)
	}
	m[r.Name] = r
}

func (idx *ProcessingIndex) Lookup(kind SourceKind, name string) (*ProcessingRule, bool) {
	m, ok := idx.bySourceKind[kind]
	if !ok {
		return nil, false
	}
	r, ok := m[name]
	return r, ok
}

// AWSRules returns the built-in "aws" rules in load order (spec §4.2:
// "iterate the aws rules").
func (idx *ProcessingIndex) AWSRules() []*ProcessingRule {
	return idx.ordered[SourceAWS]
}
