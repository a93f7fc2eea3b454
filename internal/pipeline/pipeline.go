// Package pipeline implements the Driver (spec §4.8): the per-invocation
// loop that turns a batch of object notifications into shipped records,
// strictly sequentially (spec §5).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimbusforge/s3logforwarder/internal/decode"
	"github.com/nimbusforge/s3logforwarder/internal/extract"
	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/match"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
	"github.com/nimbusforge/s3logforwarder/internal/rules"
	"github.com/nimbusforge/s3logforwarder/internal/shape"
	"github.com/nimbusforge/s3logforwarder/internal/sink"
	"github.com/nimbusforge/s3logforwarder/internal/store"
)

// deadlineCheckInterval is how often, in decoded entries, the Driver
// checks the remaining invocation time (spec §4.8 "every 1000 records").
const deadlineCheckInterval = 1000

// deadlineSafetyMargin is how much time must remain past the current
// instant for the Driver to keep going (spec §4.8 "remaining_time_ms").
const deadlineSafetyMargin = 10 * time.Second

// errDeadlineApproaching signals the Driver to stop processing
// immediately, per spec §4.8's failure dispatch table.
var errDeadlineApproaching = errors.New("deadline approaching")

// Notification is one inbound object-created event (spec §6).
type Notification struct {
	ID     string // the outbound batchItemFailures itemIdentifier
	Bucket string
	Key    string
	Region string
}

// Fetcher is the Object Fetcher surface the Driver depends on.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (*store.Object, error)
}

// Driver wires every other component together for one invocation.
type Driver struct {
	Matcher   *match.Matcher
	Fetcher   Fetcher
	Extractor *extract.Extractor
	Shaper    *shape.Shaper
	Sinks     *sink.Pool
	Metrics   *metrics.Metrics
	Log       logging.Logger
}

// Run processes notifications in order against deadline, returning the
// ids of notifications that failed (spec §6 outbound batchItemFailures
// shape).
func (d *Driver) Run(ctx context.Context, notifications []Notification, deadline time.Time) []string {
	var failed []string
	stopped := false

	for _, n := range notifications {
		if stopped {
			failed = append(failed, n.ID)
			continue
		}

		d.Sinks.EmptyAll()
		err := d.processOne(ctx, n, deadline)
		if err == nil {
			continue
		}

		if errors.Is(err, errDeadlineApproaching) {
			stopped = true
			d.Metrics.NotEnoughExecutionTimeRemaining.Inc()
			d.Log.Warn("deadline approaching, failing remaining notifications", logging.String("notification", n.ID))
			failed = append(failed, n.ID)
			continue
		}

		d.Metrics.LogProcessingFailures.Inc()
		d.Log.Error("notification failed", err, logging.String("notification", n.ID), logging.String("bucket", n.Bucket), logging.String("key", n.Key))
		failed = append(failed, n.ID)
	}

	return failed
}

// hasValidSink reports whether at least one sink named by fwd is actually
// configured in the pool (spec §4.8 "on no valid sinks in the rule").
func (d *Driver) hasValidSink(fwd *rules.ForwardingRule) bool {
	for _, id := range fwd.Sinks {
		if _, ok := d.Sinks.Get(id); ok {
			return true
		}
	}
	return false
}

func (d *Driver) processOne(ctx context.Context, n Notification, deadline time.Time) error {
	fwd, ok := d.Matcher.Forwarding(n.Bucket, n.Key)
	if !ok {
		d.Metrics.DroppedObjectsNotMatchingFwdRules.Inc()
		return nil
	}

	rule := d.Matcher.Processing(fwd, n.Key)

	if !d.hasValidSink(fwd) {
		d.Log.Error("forwarding rule names no configured sink", nil, logging.String("rule", fwd.Name), logging.String("bucket", n.Bucket), logging.String("key", n.Key))
		return fmt.Errorf("no valid sinks for rule %s", fwd.Name)
	}

	obj, err := d.Fetcher.Fetch(ctx, n.Bucket, n.Key)
	if err != nil {
		return fmt.Errorf("fetch %s/%s: %w", n.Bucket, n.Key, err)
	}
	defer obj.Body.Close()

	count := 0
	decodeErr := decode.Decode(obj.Body, n.Key, obj.ContentEncoding, rule, func(e decode.Entry) error {
		count++
		if count%deadlineCheckInterval == 0 && time.Until(deadline) < deadlineSafetyMargin {
			return errDeadlineApproaching
		}

		attrs := d.Extractor.Extract(e, rule, n.Key)
		record := d.Shaper.Shape(e, fwd, rule, attrs, n.Bucket, n.Key, n.Region)

		for _, sinkID := range fwd.Sinks {
			sk, ok := d.Sinks.Get(sinkID)
			if !ok {
				continue
			}
			if err := sk.Push(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, decode.ErrNonUTF8TextEntry):
			d.Metrics.DroppedObjectsDecodingErrors.Inc()
			return nil
		case errors.Is(decodeErr, errDeadlineApproaching):
			if flushErr := d.Sinks.FlushAll(ctx); flushErr != nil {
				d.Log.Warn("flush on deadline failed", logging.String("error", flushErr.Error()))
			}
			return errDeadlineApproaching
		case errors.Is(decodeErr, decode.ErrMalformedStructuredEntry):
			d.Metrics.FilesWithInvalidLogEntries.Inc()
			return decodeErr
		default:
			return decodeErr
		}
	}

	if err := d.Sinks.FlushAll(ctx); err != nil {
		return fmt.Errorf("flush sinks for %s/%s: %w", n.Bucket, n.Key, err)
	}
	d.Metrics.LogFilesProcessed.Inc()
	return nil
}
