package decode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

func TestDecodeTextSkipsEmptyLinesAndHeaders(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatText, SkipHeaderLines: 1}
	r := strings.NewReader("header\n\nline one\nline two\n")

	var got []Entry
	err := Decode(r, "key.log", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "line one", got[0].Text)
	require.Equal(t, "line two", got[1].Text)
}

func TestDecodeTextNonUTF8IsErrNonUTF8TextEntry(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatText}
	r := strings.NewReader("valid\n\xff\xfe invalid\n")

	err := Decode(r, "key.log", "", rule, func(e Entry) error { return nil })
	require.ErrorIs(t, err, ErrNonUTF8TextEntry)
}

func TestDecodeJSONStreamsTopLevelArray(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatJSON}
	r := strings.NewReader(`[{"a":1},{"a":2}]`)

	var got []Entry
	err := Decode(r, "key.json", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, float64(1), got[0].Data["a"])
}

func TestDecodeJSONNavigatesToLogEntriesKey(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatJSON, LogEntriesKey: "Records"}
	r := strings.NewReader(`{"Records":[{"a":1}],"other":"ignored"}`)

	var got []Entry
	err := Decode(r, "key.json", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, float64(1), got[0].Data["a"])
}

func TestDecodeJSONStreamYieldsSubRecordsWithParent(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatJSONStream, LogEntriesKey: "logEvents"}
	r := strings.NewReader(`{"logGroup":"/my/group","logEvents":[{"message":"m1"},{"message":"m2"}]}`)

	var got []Entry
	err := Decode(r, "key.json", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "m1", got[0].Data["message"])
	require.Equal(t, "/my/group", got[0].Parent["logGroup"])
}

func TestDecodeJSONStreamWithoutSubRecordsYieldsTopLevel(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatJSONStream}
	r := strings.NewReader(`{"a":1}{"a":2}`)

	var got []Entry
	err := Decode(r, "key.json", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestDecodeJSONStreamAppliesFilter(t *testing.T) {
	rule := &rules.ProcessingRule{
		LogFormat:         rules.FormatJSONStream,
		LogEntriesKey:     "records",
		FilterObjectKey:   "kind",
		FilterObjectValue: "keep",
	}
	r := strings.NewReader(`{"records":[{"kind":"keep","v":1},{"kind":"drop","v":2}]}`)

	var got []Entry
	err := Decode(r, "key.json", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, float64(1), got[0].Data["v"])
}

func TestDecodeJSONMalformedIsErrMalformedStructuredEntry(t *testing.T) {
	rule := &rules.ProcessingRule{LogFormat: rules.FormatJSON}
	r := strings.NewReader(`{not valid json`)

	err := Decode(r, "key.json", "", rule, func(e Entry) error { return nil })
	require.ErrorIs(t, err, ErrMalformedStructuredEntry)
}

func TestDecodeCWLToFHDoubleGzip(t *testing.T) {
	inner := gzipString(t, `{"logGroup":"/my/group","logStream":"s","logEvents":[{"message":"hi"}]}`)
	outer := gzipBytes(t, inner)

	rule := &rules.ProcessingRule{Name: "cwl_to_fh", LogFormat: rules.FormatJSONStream, LogEntriesKey: "logEvents"}

	var got []Entry
	err := Decode(strings.NewReader(string(outer)), "AWSLogs/123456789012/x.gz", "", rule, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0].Data["message"])
}
