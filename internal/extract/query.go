package extract

import (
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// evalQueries implements spec §4.4 step 3: for each query_expressions
// entry, resolve the dotted path against the structured entry and, on a
// hit, set the attribute. When the attribute name differs from the
// query's own leaf field name, the leaf-named key is dropped from the
// accumulator -- this is a rename, not a copy, so the bare field picked
// up by an earlier step (key-name regex, grok) doesn't survive under
// its original name too.
func (x *Extractor) evalQueries(data map[string]any, rule *rules.ProcessingRule, acc map[string]any) {
	if len(rule.QueryExpressions) == 0 {
		return
	}
	container := gabs.Wrap(data)
	for attr, query := range rule.QueryExpressions {
		result := container.Path(query)
		if result == nil || result.Data() == nil {
			continue
		}
		acc[attr] = result.Data()

		leaf := query
		if i := strings.LastIndexByte(query, '.'); i >= 0 {
			leaf = query[i+1:]
		}
		if leaf != attr {
			delete(acc, leaf)
		}
	}
}

// inheritFromParent implements spec §4.4 step 4 for json_stream
// sub-records: attrs_from_top_level_json maps a query (a dotted path
// into the enclosing object) to the attribute name it's emitted as, and
// attr_mapping_from_top_level_json bulk-copies every (filtered) top-level
// key with a prefix/postfix.
func (x *Extractor) inheritFromParent(parent map[string]any, rule *rules.ProcessingRule, acc map[string]any) {
	if len(rule.AttrsFromTopLevelJSON) > 0 {
		container := gabs.Wrap(parent)
		for query, attr := range rule.AttrsFromTopLevelJSON {
			result := container.Path(query)
			if result == nil || result.Data() == nil {
				continue
			}
			acc[attr] = result.Data()
		}
	}

	m := rule.AttrMapping
	if m == nil {
		return
	}
	for k, v := range parent {
		if !passesMappingFilter(m, k) {
			continue
		}
		acc[m.Prefix+k+m.Postfix] = v
	}
}

func passesMappingFilter(m *rules.AttrMapping, key string) bool {
	if len(m.Include) > 0 {
		return m.Include[key]
	}
	if len(m.Exclude) > 0 {
		return !m.Exclude[key]
	}
	return true
}
