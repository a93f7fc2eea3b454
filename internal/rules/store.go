package rules

import (
	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

// Store is the Rule Store (spec §4.1): loaded once at startup and
// treated as immutable for the invocation (spec §3 "Lifecycle").
type Store struct {
	Forwarding        *ForwardingIndex
	Processing        *ProcessingIndex
	ForwardingVersion int
	ProcessingVersion int
}

// LocalSource loads both rule sets from local directories (spec §4.1
// "Local"). An I/O error reaching the forwarding directory is
// ErrConfigSourceUnavailable and aborts the whole load, per spec §7
// ("startup fails if forwarding rules unreachable"); an unreachable
// processing directory falls back to the built-in rules.
func LocalSource(forwardingDir, processingDir string, log logging.Logger, m *metrics.Metrics) (*Store, error) {
	fwd, err := LoadForwardingLocal(forwardingDir, log, m)
	if err != nil {
		return nil, err
	}
	proc, err := LoadProcessingLocal(processingDir, log, m)
	if err != nil {
		// Processing rules always have the built-in aws+generic
		// fallback available; an unreachable custom directory degrades
		// to built-ins only rather than aborting startup (spec §7:
		// "otherwise continue with built-ins").
		log.Warn("processing rules directory unavailable, continuing with built-ins", logging.String("error", err.Error()))
		proc = NewProcessingIndex()
		for _, r := range builtinAWSRules() {
			proc.Add(r)
		}
		proc.Add(builtinGenericRule())
	}
	return &Store{Forwarding: fwd, Processing: proc}, nil
}

// RemoteSource loads both rule sets from the remote configuration
// service (spec §4.1 "Remote").
func RemoteSource(c remotePuller, forwardingConfigName, processingConfigName string, log logging.Logger, m *metrics.Metrics) (*Store, error) {
	fwd, fwdVersion, err := LoadForwardingRemote(c, forwardingConfigName, log, m)
	if err != nil {
		return nil, err
	}
	proc, procVersion, err := LoadProcessingRemote(c, processingConfigName, log, m)
	if err != nil {
		log.Warn("remote processing rules unavailable, continuing with built-ins", logging.String("error", err.Error()))
		proc = NewProcessingIndex()
		for _, r := range builtinAWSRules() {
			proc.Add(r)
		}
		proc.Add(builtinGenericRule())
		procVersion = 0
	}
	return &Store{Forwarding: fwd, Processing: proc, ForwardingVersion: fwdVersion, ProcessingVersion: procVersion}, nil
}
