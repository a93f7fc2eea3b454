package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

// LoadForwardingLocal reads forwarding rules from dir: one file per
// bucket, filename stem is the bucket name, file content is a sequence
// of rule objects (spec §4.1, §6). Per-rule and per-file problems are
// logged and skipped; the call only fails closed on an I/O error
// reaching the directory itself.
func LoadForwardingLocal(dir string, log logging.Logger, m *metrics.Metrics) (*ForwardingIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	idx := NewForwardingIndex()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		bucket := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping forwarding rule file: read failed", logging.String("path", path), logging.String("error", err.Error()))
			m.RuleLoadErrorsForwarding.Inc()
			continue
		}

		var raws []rawForwardingRule
		if err := yaml.Unmarshal(data, &raws); err != nil {
			log.Warn("skipping forwarding rule file: parse failed", logging.String("path", path), logging.String("error", err.Error()))
			m.RuleLoadErrorsForwarding.Inc()
			continue
		}

		for _, raw := range raws {
			rule, err := compileForwarding(raw)
			if err != nil {
				log.Warn("skipping forwarding rule", logging.String("bucket", bucket), logging.String("error", err.Error()))
				m.RuleLoadErrorsForwarding.Inc()
				continue
			}
			idx.Add(bucket, rule)
		}
	}
	return idx, nil
}

// LoadProcessingLocal reads custom/generic processing rules from a
// directory tree, one rule object per file (spec §4.1, §6), and merges
// them on top of the built-in aws rules, source by source.
func LoadProcessingLocal(dir string, log logging.Logger, m *metrics.Metrics) (*ProcessingIndex, error) {
	idx := NewProcessingIndex()
	for _, r := range builtinAWSRules() {
		idx.Add(r)
	}
	idx.Add(builtinGenericRule())

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Warn("skipping processing rule file: read failed", logging.String("path", path), logging.String("error", readErr.Error()))
			m.RuleLoadErrorsProcessing.Inc()
			return nil
		}

		var raw rawProcessingRule
		if parseErr := yaml.Unmarshal(data, &raw); parseErr != nil {
			log.Warn("skipping processing rule file: parse failed", logging.String("path", path), logging.String("error", parseErr.Error()))
			m.RuleLoadErrorsProcessing.Inc()
			return nil
		}

		rule, compileErr := compileProcessing(raw)
		if compileErr != nil {
			log.Warn("skipping processing rule", logging.String("path", path), logging.String("error", compileErr.Error()))
			m.RuleLoadErrorsProcessing.Inc()
			return nil
		}
		idx.Add(rule)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}
	return idx, nil
}
