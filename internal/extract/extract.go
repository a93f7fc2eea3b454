// Package extract implements the Attribute Extractor (spec §4.4): a
// pure function from (raw entry, processing rule, object key) to an
// attribute map. Nothing here performs IO or retains state between
// calls.
package extract

import (
	"github.com/nimbusforge/s3logforwarder/internal/decode"
	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// Extractor runs the attribute-extraction pipeline.
type Extractor struct {
	log logging.Logger
}

func New(log logging.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract returns the attribute map for entry, given rule and the
// object's key (spec §4.4 "Pipeline, in order"). The result is
// deterministic: the same (entry, rule, key) always produces the same
// map, attribute ordering aside.
func (x *Extractor) Extract(entry decode.Entry, rule *rules.ProcessingRule, key string) map[string]any {
	acc := map[string]any{}

	// 1. Key-name extraction.
	for attr, pattern := range rule.AttrFromKeyName {
		if m := pattern.FindString(key); m != "" {
			acc[attr] = m
		}
	}

	// 2. Pattern extraction (text only).
	liftedByGrok := false
	if rule.GrokPattern != nil {
		if entry.IsStructured() {
			x.log.Warn("grok_pattern configured but entry is structured, skipping", logging.String("rule", rule.Name))
		} else {
			values, err := rule.GrokPattern.ParseString(rule.GrokPatternSource, entry.Text)
			if err == nil && len(values) > 0 {
				for k, v := range values {
					if v == "" {
						acc[k] = nil
					} else {
						acc[k] = v
					}
				}
				liftedByGrok = true
			}
		}
	}

	// 3. Structured-query extraction: the entry itself, or the fields a
	// matching grok_pattern just lifted into the accumulator (spec §4.4
	// step 3 "or was lifted into one by step 2").
	if entry.IsStructured() {
		x.evalQueries(entry.Data, rule, acc)
	} else if liftedByGrok {
		x.evalQueries(acc, rule, acc)
	}

	// 4. Top-level bulk mapping (json_stream sub-records only).
	if entry.Parent != nil {
		x.inheritFromParent(entry.Parent, rule, acc)
	}

	// 5. Timestamp normalization.
	normalizeTimestamp(acc, x.log)

	// 6. CloudWatch-Logs / AWS-builtin derivation.
	deriveAWSBuiltins(acc, rule, key)

	// 7. Rule annotations.
	for k, v := range rule.Annotations {
		acc[k] = v
	}

	// 8. Null pruning.
	for k, v := range acc {
		if v == nil {
			delete(acc, k)
		}
	}

	return acc
}
