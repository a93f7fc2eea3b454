package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nimbusforge/s3logforwarder/internal/config"
	"github.com/nimbusforge/s3logforwarder/internal/creds"
	"github.com/nimbusforge/s3logforwarder/internal/extract"
	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/match"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
	"github.com/nimbusforge/s3logforwarder/internal/pipeline"
	"github.com/nimbusforge/s3logforwarder/internal/rules"
	"github.com/nimbusforge/s3logforwarder/internal/shape"
	"github.com/nimbusforge/s3logforwarder/internal/ship"
	"github.com/nimbusforge/s3logforwarder/internal/sink"
	"github.com/nimbusforge/s3logforwarder/internal/store"
)

func runCmd() *cobra.Command {
	var notificationsPath string
	var deadlineIn time.Duration

	c := &cobra.Command{
		Use:   "run",
		Short: "process one batch of S3 object notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), notificationsPath, deadlineIn)
		},
	}
	c.Flags().StringVar(&notificationsPath, "notifications", "-", "path to a notifications JSON file, or - for stdin")
	c.Flags().DurationVar(&deadlineIn, "deadline", 5*time.Minute, "time remaining for this invocation")
	return c
}

func run(ctx context.Context, notificationsPath string, deadlineIn time.Duration) error {
	env := config.FromEnviron()
	log := logging.New(os.Stderr, env.LoggingLevel)
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	ruleStore, err := loadRuleStore(env, log, met)
	if err != nil {
		return fmt.Errorf("load rule store: %w", err)
	}

	credStore := creds.New(ssm.NewFromConfig(awsCfg), log)

	endpoints := make([]ship.Endpoint, 0, len(env.Sinks))
	for _, se := range env.Sinks {
		endpoints = append(endpoints, ship.Endpoint{ID: se.ID, URL: se.EndpointURL, APIKeyParameterRef: se.APIKeyParameterRef})
	}
	shipper := ship.New(endpoints, credStore, met, log, env.VerifyTLS)

	sinks := make([]*sink.Sink, 0, len(endpoints))
	for _, e := range endpoints {
		sinks = append(sinks, sink.New(e.ID, shipper, log))
	}
	pool := sink.NewPool(sinks)

	driver := &pipeline.Driver{
		Matcher:   match.New(ruleStore),
		Fetcher:   store.NewFetcher(s3.NewFromConfig(awsCfg)),
		Extractor: extract.New(log),
		Shaper:    shape.New(env.ForwarderFunctionARN, met),
		Sinks:     pool,
		Metrics:   met,
		Log:       log,
	}

	in, err := openNotifications(notificationsPath)
	if err != nil {
		return err
	}
	defer in.Close()

	notifications, err := pipeline.DecodeNotifications(in)
	if err != nil {
		return err
	}

	failed := driver.Run(ctx, notifications, time.Now().Add(deadlineIn))
	return pipeline.EncodeFailureReport(os.Stdout, failed)
}

func openNotifications(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notifications file: %w", err)
	}
	return f, nil
}

func loadRuleStore(env config.Env, log logging.Logger, met *metrics.Metrics) (*rules.Store, error) {
	switch env.ConfigurationLocation {
	case config.LocationAppConfig:
		client := config.NewRemoteConfigClient("", env.DeploymentName, env.DeploymentName, log)
		return rules.RemoteSource(client, "forwarding_rules", "processing_rules", log, met)
	default:
		return rules.LocalSource(env.ForwardingRulesPath, env.ProcessingRulesPath, log, met)
	}
}
