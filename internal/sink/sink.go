// Package sink implements the Sink Batcher (spec §4.6): it accumulates
// shaped records per destination sink and flushes them as a single
// batch through the HTTP Shipper once a size or count cap is reached.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

// MaxEntries is the per-batch record-count cap (spec §4.6).
const MaxEntries = 5000

// MaxPayloadBytes is the per-batch uncompressed-payload byte cap (spec
// §4.6).
const MaxPayloadBytes = 5 * 1024 * 1024

// Shipper is the HTTP Shipper's contract as seen by a Sink: ship one
// already-batched, not-yet-compressed JSON array payload for sinkID,
// tagged with its batch number (spec §4.6 "call the HTTP Shipper
// synchronously with the current buffer and batch_num").
type Shipper interface {
	Ship(ctx context.Context, sinkID string, payload []byte, count, batchNum int) error
}

// Sink buffers records for one destination and flushes them through a
// Shipper. It is not safe for concurrent use; the pipeline is strictly
// sequential per spec §5.
type Sink struct {
	ID      string
	shipper Shipper
	log     logging.Logger

	entries     []map[string]any
	approxBytes int
	batchNum    int
}

func New(id string, shipper Shipper, log logging.Logger) *Sink {
	s := &Sink{ID: id, shipper: shipper, log: log}
	s.resetAll()
	return s
}

// Push appends record to the current batch, flushing first if adding it
// would overflow either cap (spec §4.6 "push"). Flushing on overflow,
// not after, means a single oversize batch never exceeds the caps.
func (s *Sink) Push(ctx context.Context, record map[string]any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sink %s: encode record: %w", s.ID, err)
	}
	addedBytes := len(encoded) + 1 // +1 for the array separator

	if len(s.entries) >= MaxEntries || s.approxBytes+addedBytes > MaxPayloadBytes {
		if err := s.Flush(ctx); err != nil {
			return err
		}
	}

	s.entries = append(s.entries, record)
	s.approxBytes += addedBytes
	return nil
}

// Flush ships whatever is buffered, then clears the buffer regardless of
// the shipping outcome (spec §4.6 "flush"): a failed batch is not
// retried from the buffer, it is reported as a notification failure by
// the caller. batch_num is not reset here -- it only resets at the
// notification boundary via Empty.
func (s *Sink) Flush(ctx context.Context) error {
	if len(s.entries) == 0 {
		return nil
	}
	payload, err := json.Marshal(s.entries)
	if err != nil {
		s.clearBuffer()
		return fmt.Errorf("sink %s: encode batch: %w", s.ID, err)
	}
	count := len(s.entries)
	batchNum := s.batchNum
	shipErr := s.shipper.Ship(ctx, s.ID, payload, count, batchNum)
	s.clearBuffer()
	s.batchNum++
	if shipErr != nil {
		return fmt.Errorf("sink %s batch %d: %w", s.ID, batchNum, shipErr)
	}
	return nil
}

// Empty discards any buffered entries without shipping them and resets
// batch_num to 1 (spec §4.6 "empty_sink"), used before each notification
// so a sink never carries records or batch numbering from one
// notification into the next.
func (s *Sink) Empty() {
	s.resetAll()
}

func (s *Sink) clearBuffer() {
	s.entries = nil
	s.approxBytes = 2 // "[]"
}

func (s *Sink) resetAll() {
	s.clearBuffer()
	s.batchNum = 1
}
