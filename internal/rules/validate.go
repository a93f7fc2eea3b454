package rules

import (
	"regexp"

	"github.com/Jeffail/grok"
)

// compileForwarding validates and compiles a raw forwarding rule into its
// typed form (spec §4.1 "Validation"). It fails closed: any problem
// returns an IncorrectRuleFormat error and the rule is dropped by the
// caller, never partially populated.
func compileForwarding(raw rawForwardingRule) (*ForwardingRule, error) {
	if raw.Name == "" {
		return nil, invalid("<unnamed>", "name is required")
	}
	if raw.KeyPattern == "" {
		return nil, invalid(raw.Name, "key_pattern is required")
	}
	pattern, err := regexp.Compile(raw.KeyPattern)
	if err != nil {
		return nil, invalid(raw.Name, "key_pattern does not compile: %v", err)
	}

	kind := SourceKind(raw.SourceKind)
	sourceName := raw.SourceName
	switch kind {
	case SourceAWS:
		if sourceName != "" {
			return nil, invalid(raw.Name, "source_name is forbidden when source_kind is %q", SourceAWS)
		}
	case SourceGeneric:
		if sourceName == "" {
			sourceName = "generic"
		}
	case SourceCustom:
		if sourceName == "" {
			return nil, invalid(raw.Name, "source_name is required when source_kind is %q", SourceCustom)
		}
	default:
		return nil, invalid(raw.Name, "unknown source_kind %q", raw.SourceKind)
	}

	sinks := raw.Sinks
	if len(sinks) == 0 {
		sinks = []string{"1"}
	}

	return &ForwardingRule{
		Name:        raw.Name,
		KeyPattern:  pattern,
		SourceKind:  kind,
		SourceName:  sourceName,
		Annotations: raw.Annotations,
		Sinks:       sinks,
	}, nil
}

// compileProcessing validates and compiles a raw processing rule (spec
// §4.1 "Validation").
func compileProcessing(raw rawProcessingRule) (*ProcessingRule, error) {
	if raw.Name == "" {
		return nil, invalid("<unnamed>", "name is required")
	}

	kind := SourceKind(raw.SourceKind)
	switch kind {
	case SourceAWS, SourceGeneric, SourceCustom:
	default:
		return nil, invalid(raw.Name, "unknown source_kind %q", raw.SourceKind)
	}

	format := LogFormat(raw.LogFormat)
	switch format {
	case FormatText, FormatJSON, FormatJSONStream:
	default:
		return nil, invalid(raw.Name, "unknown log_format %q", raw.LogFormat)
	}

	// (b) in spec §9: skip_header_lines must be a non-negative integer,
	// defaulting to 0; it is only legal for the text format.
	if raw.SkipHeaderLines < 0 {
		return nil, invalid(raw.Name, "skip_header_lines must be non-negative")
	}
	if raw.SkipHeaderLines != 0 && format != FormatText {
		return nil, invalid(raw.Name, "skip_header_lines is only valid for log_format=text")
	}

	if raw.AttrsFromTopLevelJSON != nil && !(format == FormatJSONStream && raw.LogEntriesKey != "") {
		return nil, invalid(raw.Name, "attrs_from_top_level_json is only valid for json_stream rules with log_entries_key set")
	}

	var keyPathPattern *regexp.Regexp
	if raw.KeyPathPattern != "" {
		var err error
		keyPathPattern, err = regexp.Compile(raw.KeyPathPattern)
		if err != nil {
			return nil, invalid(raw.Name, "key_path_pattern does not compile: %v", err)
		}
	} else if kind == SourceAWS {
		return nil, invalid(raw.Name, "key_path_pattern is required for source_kind=aws")
	}

	attrFromKeyName := map[string]*regexp.Regexp{}
	for attr, pat := range raw.AttrFromKeyName {
		compiled, err := regexp.Compile(pat)
		if err != nil {
			return nil, invalid(raw.Name, "attr_from_key_name[%s] does not compile: %v", attr, err)
		}
		attrFromKeyName[attr] = compiled
	}

	var g *grok.Grok
	if raw.GrokPattern != "" {
		if format != FormatText {
			return nil, invalid(raw.Name, "grok_pattern is only meaningful for log_format=text")
		}
		var err error
		g, err = grok.NewWithConfig(&grok.Config{NamedCapturesOnly: true})
		if err != nil {
			return nil, invalid(raw.Name, "grok engine init failed: %v", err)
		}
		if err := g.Compile(raw.GrokPattern, true); err != nil {
			return nil, invalid(raw.Name, "grok_pattern does not compile: %v", err)
		}
	}

	var mapping *AttrMapping
	if raw.AttrMapping != nil {
		hasInclude := len(raw.AttrMapping.Include) > 0
		hasExclude := len(raw.AttrMapping.Exclude) > 0
		if hasInclude == hasExclude {
			return nil, invalid(raw.Name, "attr_mapping_from_top_level_json requires exactly one of include or exclude")
		}
		mapping = &AttrMapping{Prefix: raw.AttrMapping.Prefix, Postfix: raw.AttrMapping.Postfix}
		if hasInclude {
			mapping.Include = toSet(raw.AttrMapping.Include)
		} else {
			mapping.Exclude = toSet(raw.AttrMapping.Exclude)
		}
	}

	return &ProcessingRule{
		Name:                  raw.Name,
		SourceKind:            kind,
		KeyPathPattern:        keyPathPattern,
		LogFormat:             format,
		LogEntriesKey:         raw.LogEntriesKey,
		FilterObjectKey:       raw.FilterObjectKey,
		FilterObjectValue:     raw.FilterObjectValue,
		Annotations:           raw.Annotations,
		AttrFromKeyName:       attrFromKeyName,
		GrokPattern:           g,
		GrokPatternSource:     raw.GrokPattern,
		QueryExpressions:      raw.QueryExpressions,
		AttrsFromTopLevelJSON: raw.AttrsFromTopLevelJSON,
		AttrMapping:           mapping,
		SkipHeaderLines:       raw.SkipHeaderLines,
		SkipContentAttribute:  raw.SkipContentAttribute,
	}, nil
}

func toSet(vals []string) map[string]bool {
	s := make(map[string]bool, len(vals))
	for _, v := range vals {
		s[v] = true
	}
	return s
}
