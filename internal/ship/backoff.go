package ship

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net/http"
	"time"

	rhttp "github.com/hashicorp/go-retryablehttp"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

// checkRetry retries only the two transient sink responses named in
// spec §4.7; everything else (including success and 400) is final.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true, nil
	}
	return false, nil
}

// backoff grows exponentially from min, scaled by backoffFactor, capped
// at max (spec §4.7 "exponential backoff, factor 0.5").
func backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	wait := time.Duration(float64(min) * backoffFactor * math.Pow(2, float64(attemptNum)))
	if wait > max {
		return max
	}
	if wait < min {
		return min
	}
	return wait
}

func tlsConfig(verify bool) *tls.Config {
	return &tls.Config{InsecureSkipVerify: !verify}
}

// leveledLogger adapts logging.Logger to retryablehttp's LeveledLogger
// interface (same adapter shape the corpus uses for its own retry client).
type leveledLogger struct {
	log logging.Logger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.log.Error(msg, nil, fieldsOf(kv)...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.log.Info(msg, fieldsOf(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.log.Debug(msg, fieldsOf(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.log.Warn(msg, fieldsOf(kv)...) }

func fieldsOf(kv []any) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.String(key, fmt.Sprint(kv[i+1])))
	}
	return fields
}

var _ rhttp.LeveledLogger = leveledLogger{}
