// Package creds implements the credential service client (spec §6): it
// resolves a sink's API-key SSM parameter reference to a plaintext
// token, cached process-wide for the lifetime named in the spec so a
// high-volume invocation doesn't re-fetch the same secret per batch.
package creds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

// cacheTTL is how long a resolved token is reused before refetching
// (spec §6).
const cacheTTL = 120 * time.Second

type ssmClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type cacheEntry struct {
	value   string
	expires time.Time
}

// Store resolves and caches SSM parameters. One Store is shared across
// every sink for the lifetime of the process (spec §5).
type Store struct {
	client ssmClient
	log    logging.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func New(client *ssm.Client, log logging.Logger) *Store {
	return &Store{client: client, log: log, entries: map[string]cacheEntry{}}
}

// Token returns the decrypted parameter value for parameterRef, from
// cache if it was fetched within the last cacheTTL.
func (s *Store) Token(ctx context.Context, parameterRef string) (string, error) {
	s.mu.Lock()
	if e, ok := s.entries[parameterRef]; ok && time.Now().Before(e.expires) {
		s.mu.Unlock()
		return e.value, nil
	}
	s.mu.Unlock()

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameterRef),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("creds: fetch parameter %s: %w", parameterRef, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("creds: parameter %s has no value", parameterRef)
	}
	value := *out.Parameter.Value

	s.mu.Lock()
	s.entries[parameterRef] = cacheEntry{value: value, expires: time.Now().Add(cacheTTL)}
	s.mu.Unlock()

	return value, nil
}
