package rules

import "testing"

import "github.com/stretchr/testify/require"

func TestCompileForwardingDefaultsSinksAndGenericSourceName(t *testing.T) {
	rule, err := compileForwarding(rawForwardingRule{
		Name:       "r1",
		KeyPattern: `^app/`,
		SourceKind: "generic",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, rule.Sinks)
	require.Equal(t, "generic", rule.SourceName)
}

func TestCompileForwardingRejectsSourceNameForAWS(t *testing.T) {
	_, err := compileForwarding(rawForwardingRule{
		Name:       "r1",
		KeyPattern: `^app/`,
		SourceKind: "aws",
		SourceName: "nope",
	})
	require.Error(t, err)
	require.True(t, IsIncorrectRuleFormat(err))
}

func TestCompileForwardingRequiresSourceNameForCustom(t *testing.T) {
	_, err := compileForwarding(rawForwardingRule{
		Name:       "r1",
		KeyPattern: `^app/`,
		SourceKind: "custom",
	})
	require.Error(t, err)
}

func TestCompileForwardingRejectsBadKeyPattern(t *testing.T) {
	_, err := compileForwarding(rawForwardingRule{
		Name:       "r1",
		KeyPattern: `(unterminated`,
		SourceKind: "generic",
	})
	require.Error(t, err)
}

func TestCompileProcessingRequiresKeyPathPatternForAWS(t *testing.T) {
	_, err := compileProcessing(rawProcessingRule{
		Name:       "r1",
		SourceKind: "aws",
		LogFormat:  "text",
	})
	require.Error(t, err)
}

func TestCompileProcessingRejectsSkipHeaderLinesOnNonText(t *testing.T) {
	_, err := compileProcessing(rawProcessingRule{
		Name:            "r1",
		SourceKind:      "generic",
		LogFormat:       "json",
		SkipHeaderLines: 1,
	})
	require.Error(t, err)
}

func TestCompileProcessingRejectsAttrsFromTopLevelJSONWithoutSubRecords(t *testing.T) {
	_, err := compileProcessing(rawProcessingRule{
		Name:                  "r1",
		SourceKind:            "generic",
		LogFormat:             "json",
		AttrsFromTopLevelJSON: map[string]string{"a": "b"},
	})
	require.Error(t, err)
}

func TestCompileProcessingAcceptsAttrsFromTopLevelJSONWithSubRecords(t *testing.T) {
	rule, err := compileProcessing(rawProcessingRule{
		Name:                  "r1",
		SourceKind:            "generic",
		LogFormat:             "json_stream",
		LogEntriesKey:         "records",
		AttrsFromTopLevelJSON: map[string]string{"a": "b"},
	})
	require.NoError(t, err)
	require.Equal(t, "b", rule.AttrsFromTopLevelJSON["a"])
}

func TestCompileProcessingRejectsGrokOnNonText(t *testing.T) {
	_, err := compileProcessing(rawProcessingRule{
		Name:        "r1",
		SourceKind:  "generic",
		LogFormat:   "json",
		GrokPattern: "%{WORD:foo}",
	})
	require.Error(t, err)
}

func TestCompileProcessingCompilesGrokPattern(t *testing.T) {
	rule, err := compileProcessing(rawProcessingRule{
		Name:        "r1",
		SourceKind:  "generic",
		LogFormat:   "text",
		GrokPattern: "%{WORD:foo}",
	})
	require.NoError(t, err)
	require.NotNil(t, rule.GrokPattern)
	require.Equal(t, "%{WORD:foo}", rule.GrokPatternSource)
}

func TestCompileProcessingAttrMappingRequiresExactlyOneOfIncludeExclude(t *testing.T) {
	_, err := compileProcessing(rawProcessingRule{
		Name:        "r1",
		SourceKind:  "generic",
		LogFormat:   "json_stream",
		LogEntriesKey: "records",
		AttrMapping: &rawAttrMapping{Include: []string{"a"}, Exclude: []string{"b"}},
	})
	require.Error(t, err)

	_, err = compileProcessing(rawProcessingRule{
		Name:        "r2",
		SourceKind:  "generic",
		LogFormat:   "json_stream",
		LogEntriesKey: "records",
		AttrMapping: &rawAttrMapping{},
	})
	require.Error(t, err)
}

func TestCompileProcessingAttrMappingInclude(t *testing.T) {
	rule, err := compileProcessing(rawProcessingRule{
		Name:          "r1",
		SourceKind:    "generic",
		LogFormat:     "json_stream",
		LogEntriesKey: "records",
		AttrMapping:   &rawAttrMapping{Include: []string{"a", "b"}, Prefix: "x."},
	})
	require.NoError(t, err)
	require.True(t, rule.AttrMapping.Include["a"])
	require.Nil(t, rule.AttrMapping.Exclude)
	require.Equal(t, "x.", rule.AttrMapping.Prefix)
}
