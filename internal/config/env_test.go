package config

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvironDefaults(t *testing.T) {
	e := FromEnviron()
	require.Equal(t, LocationLocal, e.ConfigurationLocation)
	require.Equal(t, defaultFwdRulesPath, e.ForwardingRulesPath)
	require.Equal(t, defaultProcRulesPath, e.ProcessingRulesPath)
	require.True(t, e.VerifyTLS)
	require.Equal(t, "info", e.LoggingLevel)
}

func TestFromEnvironOverridesAndSinkDiscovery(t *testing.T) {
	t.Setenv("LOG_FORWARDER_CONFIGURATION_LOCATION", "aws-appconfig")
	t.Setenv("LOG_FORWARDING_RULES_PATH", "/etc/fwd")
	t.Setenv("DEPLOYMENT_NAME", "prod-us")
	t.Setenv("VERIFY_DT_SSL_CERT", "false")
	t.Setenv("DYNATRACE_PROD_ENV_URL", "https://prod.live.dynatrace.com")
	t.Setenv("DYNATRACE_PROD_API_KEY_PARAM", "/dt/prod/token")

	e := FromEnviron()
	require.Equal(t, LocationAppConfig, e.ConfigurationLocation)
	require.Equal(t, "/etc/fwd", e.ForwardingRulesPath)
	require.Equal(t, "prod-us", e.DeploymentName)
	require.False(t, e.VerifyTLS)
	require.Len(t, e.Sinks, 1)
	require.Equal(t, "PROD", e.Sinks[0].ID)
	require.Equal(t, "https://prod.live.dynatrace.com", e.Sinks[0].EndpointURL)
	require.Equal(t, "/dt/prod/token", e.Sinks[0].APIKeyParameterRef)
}

func TestFromEnvironDropsIncompleteSinkPairs(t *testing.T) {
	t.Setenv("DYNATRACE_ORPHAN_ENV_URL", "https://orphan.example.com")

	e := FromEnviron()
	require.Empty(t, e.Sinks)
}

func TestFromEnvironDiscoversMultipleSinks(t *testing.T) {
	t.Setenv("DYNATRACE_A_ENV_URL", "https://a.example.com")
	t.Setenv("DYNATRACE_A_API_KEY_PARAM", "/dt/a")
	t.Setenv("DYNATRACE_B_ENV_URL", "https://b.example.com")
	t.Setenv("DYNATRACE_B_API_KEY_PARAM", "/dt/b")

	e := FromEnviron()
	ids := make([]string, 0, len(e.Sinks))
	for _, s := range e.Sinks {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	require.Equal(t, []string{"A", "B"}, ids)
}
