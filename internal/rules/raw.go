package rules

import "fmt"

// rawForwardingRule mirrors the on-disk document shape for a single
// forwarding rule entry (spec §3, §6 "local forwarding rules are a
// sequence of rule objects per file").
type rawForwardingRule struct {
	Name        string            `json:"name"`
	KeyPattern  string            `json:"key_pattern"`
	SourceKind  string            `json:"source_kind"`
	SourceName  string            `json:"source_name,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Sinks       []string          `json:"sinks,omitempty"`
}

// rawProcessingRule mirrors the on-disk document shape for one processing
// rule file (spec §3, §6 "one rule object per file in a rules directory").
type rawProcessingRule struct {
	Name       string `json:"name"`
	SourceKind string `json:"source_kind"`

	KeyPathPattern string `json:"key_path_pattern,omitempty"`

	LogFormat         string `json:"log_format"`
	LogEntriesKey     string `json:"log_entries_key,omitempty"`
	FilterObjectKey   string `json:"filter_object_key,omitempty"`
	FilterObjectValue string `json:"filter_object_value,omitempty"`

	Annotations           map[string]string    `json:"annotations,omitempty"`
	AttrFromKeyName       map[string]string     `json:"attr_from_key_name,omitempty"`
	GrokPattern           string                `json:"grok_pattern,omitempty"`
	QueryExpressions      map[string]string     `json:"query_expressions,omitempty"`
	AttrsFromTopLevelJSON map[string]string     `json:"attrs_from_top_level_json,omitempty"`
	AttrMapping           *rawAttrMapping       `json:"attr_mapping_from_top_level_json,omitempty"`

	SkipHeaderLines      int  `json:"skip_header_lines,omitempty"`
	SkipContentAttribute bool `json:"skip_content_attribute,omitempty"`
}

type rawAttrMapping struct {
	Prefix  string   `json:"prefix,omitempty"`
	Postfix string   `json:"postfix,omitempty"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// validationError is IncorrectRuleFormat (spec §7): a single rule or file
// is rejected, the load as a whole continues.
type validationError struct {
	rule string
	msg  string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("incorrect rule format (%s): %s", e.rule, e.msg)
}

func invalid(name, format string, args ...any) error {
	return &validationError{rule: name, msg: fmt.Sprintf(format, args...)}
}

// IsIncorrectRuleFormat reports whether err is the IncorrectRuleFormat kind.
func IsIncorrectRuleFormat(err error) bool {
	_, ok := err.(*validationError)
	return ok
}
