package creds

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

type fakeSSM struct {
	calls int
	value string
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)},
	}, nil
}

func TestTokenCachesWithinTTL(t *testing.T) {
	fake := &fakeSSM{value: "abc123"}
	s := &Store{client: fake, log: logging.New(nil, "error"), entries: map[string]cacheEntry{}}

	v1, err := s.Token(context.Background(), "/dt/key")
	require.NoError(t, err)
	require.Equal(t, "abc123", v1)

	v2, err := s.Token(context.Background(), "/dt/key")
	require.NoError(t, err)
	require.Equal(t, "abc123", v2)
	require.Equal(t, 1, fake.calls)
}
