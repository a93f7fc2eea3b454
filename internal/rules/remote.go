package rules

import (
	"encoding/json"
	"fmt"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

// remotePuller is the narrow slice of config.RemoteConfigClient this
// package needs; declared locally so internal/rules doesn't import
// internal/config (spec §4.1 describes remote loading purely in terms
// of "a pull against a configuration endpoint").
type remotePuller interface {
	Pull(name string) ([]byte, int, error)
}

// LoadForwardingRemote pulls and compiles forwarding rules from the
// remote configuration service. The document shape is bucket name ->
// ordered list of rule objects (spec §4.1, §6).
func LoadForwardingRemote(c remotePuller, configName string, log logging.Logger, m *metrics.Metrics) (*ForwardingIndex, int, error) {
	body, version, err := c.Pull(configName)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	var doc map[string][]rawForwardingRule
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	idx := NewForwardingIndex()
	for bucket, raws := range doc {
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
	return idx, version, nil
}

// LoadProcessingRemote pulls and compiles custom/generic processing rules
// and merges them on top of the built-in aws rules (spec §4.1, §6).
func LoadProcessingRemote(c remotePuller, configName string, log logging.Logger, m *metrics.Metrics) (*ProcessingIndex, int, error) {
	body, version, err := c.Pull(configName)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	var raws []rawProcessingRule
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	idx := NewProcessingIndex()
	for _, r := range builtinAWSRules() {
		idx.Add(r)
	}
	idx.Add(builtinGenericRule())

	for _, raw := range raws {
		rule, err := compileProcessing(raw)
		if err != nil {
			log.Warn("skipping processing rule", logging.String("name", raw.Name), logging.String("error", err.Error()))
			m.RuleLoadErrorsProcessing.Inc()
			continue
		}
		idx.Add(rule)
	}
	return idx, version, nil
}
