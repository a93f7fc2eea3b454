package rules

import "regexp"

// builtinAWSRules returns the worker's built-in "aws" processing rules
// (spec §4.1 "always includes the built-in aws rules"). They are
// compiled once at process start and never mutated afterward.
//
// The key_path_pattern values are meant to match the S3 key layout each
// AWS service writes by default; aws.service derivation for the
// CloudWatch-Logs-to-Firehose and CloudWatch-Logs-direct paths happens in
// internal/extract (spec §4.4 step 6), not here.
func builtinAWSRules() []*ProcessingRule {
	return []*ProcessingRule{
		{
			Name:           "cloudtrail",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`AWSLogs/\d+/CloudTrail/`),
			LogFormat:      FormatJSON,
			LogEntriesKey:  "Records",
		},
		{
			Name:           "vpcflowlogs",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`AWSLogs/\d+/vpcflowlogs/`),
			LogFormat:      FormatText,
		},
		{
			Name:           "s3access",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`(^|/)s3-access-logs/`),
			LogFormat:      FormatText,
		},
		{
			Name:           "elb",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`AWSLogs/\d+/elasticloadbalancing/`),
			LogFormat:      FormatText,
		},
		{
			Name:           "waf",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`AWSLogs/\d+/WAFLogs/`),
			LogFormat:      FormatJSONStream,
		},
		{
			// cwl_to_fh: CloudWatch Logs subscription filter -> Kinesis
			// Firehose -> S3. Each record is itself gzip-compressed
			// (spec §4.3 "a second gzip layer wraps the stream").
			Name:           "cwl_to_fh",
			SourceKind:     SourceAWS,
			KeyPathPattern: regexp.MustCompile(`AWSLogs/\d+/.+\.gz$`),
			LogFormat:      FormatJSONStream,
			LogEntriesKey:  "logEvents",
			AttrsFromTopLevelJSON: map[string]string{
				"logGroup":  "aws.log_group",
				"logStream": "aws.log_stream",
			},
		},
	}
}

// builtinGenericRule is the universal fallback (spec §4.2: "fall back to
// generic/generic").
func builtinGenericRule() *ProcessingRule {
	return &ProcessingRule{
		Name:       "generic",
		SourceKind: SourceGeneric,
		LogFormat:  FormatText,
	}
}
