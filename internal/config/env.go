// Package config reads the environment inputs named in spec §6 and
// implements the remote-configuration pull contract.
package config

import (
	"os"
	"regexp"
	"strings"
)

// ConfigurationLocation selects where rules are loaded from (spec §6,
// LOG_FORWARDER_CONFIGURATION_LOCATION).
type ConfigurationLocation string

const (
	LocationLocal       ConfigurationLocation = "local"
	LocationAppConfig   ConfigurationLocation = "aws-appconfig"
	defaultFwdRulesPath                       = "config/forwarding_rules"
	defaultProcRulesPath                      = "config/processing_rules"
)

// SinkEnv is one DYNATRACE_<ID>_* pair discovered by pattern (spec §6).
type SinkEnv struct {
	ID                 string
	EndpointURL        string
	APIKeyParameterRef string
}

// Env is the worker's environment-derived configuration, read once at
// startup (spec §6).
type Env struct {
	ConfigurationLocation ConfigurationLocation
	ForwardingRulesPath   string
	ProcessingRulesPath   string
	DeploymentName        string
	Sinks                 []SinkEnv
	VerifyTLS             bool
	ForwarderFunctionARN  string
	LoggingLevel          string
}

var sinkEnvPattern = regexp.MustCompile(`^DYNATRACE_([A-Za-z0-9_]+)_ENV_URL$`)

// FromEnviron reads Env from the process environment (os.Environ),
// matching the teacher's convention of reading plugin config into a
// typed struct once at startup rather than querying os.Getenv ad hoc
// throughout the codebase.
func FromEnviron() Env {
	e := Env{
		ConfigurationLocation: LocationLocal,
		ForwardingRulesPath:   defaultFwdRulesPath,
		ProcessingRulesPath:   defaultProcRulesPath,
		VerifyTLS:             true,
		LoggingLevel:          "info",
	}

	if v := os.Getenv("LOG_FORWARDER_CONFIGURATION_LOCATION"); v != "" {
		e.ConfigurationLocation = ConfigurationLocation(v)
	}
	if v := os.Getenv("LOG_FORWARDING_RULES_PATH"); v != "" {
		e.ForwardingRulesPath = v
	}
	if v := os.Getenv("LOG_PROCESSING_RULES_PATH"); v != "" {
		e.ProcessingRulesPath = v
	}
	if v := os.Getenv("DEPLOYMENT_NAME"); v != "" {
		e.DeploymentName = v
	}
	if v := os.Getenv("FORWARDER_FUNCTION_ARN"); v != "" {
		e.ForwarderFunctionARN = v
	}
	if v := os.Getenv("LOGGING_LEVEL"); v != "" {
		e.LoggingLevel = v
	}
	if strings.EqualFold(os.Getenv("VERIFY_DT_SSL_CERT"), "false") {
		e.VerifyTLS = false
	}

	ids := map[string]*SinkEnv{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		if m := sinkEnvPattern.FindStringSubmatch(key); m != nil {
			s := ensureSink(ids, m[1])
			s.EndpointURL = val
			continue
		}
		if strings.HasPrefix(key, "DYNATRACE_") && strings.HasSuffix(key, "_API_KEY_PARAM") {
			id := strings.TrimSuffix(strings.TrimPrefix(key, "DYNATRACE_"), "_API_KEY_PARAM")
			s := ensureSink(ids, id)
			s.APIKeyParameterRef = val
		}
	}
	for _, s := range ids {
		if s.EndpointURL != "" && s.APIKeyParameterRef != "" {
			e.Sinks = append(e.Sinks, *s)
		}
	}
	return e
}

func ensureSink(m map[string]*SinkEnv, id string) *SinkEnv {
	s, ok := m[id]
	if !ok {
		s = &SinkEnv{ID: id}
		m[id] = s
	}
	return s
}
