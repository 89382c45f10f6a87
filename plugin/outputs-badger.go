package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	Mt "github.com/maroda/madrigal/types"
)

// BadgerOutput is the trigger journal.
// Every dispatched trigger is kept, keyed by onset,
// so a session can be inspected or replayed afterwards.
type BadgerOutput struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*Mt.Trigger
	seq       uint32
}

// NewBadgerOutput opens the journal at path,
// an empty path keeps the journal in memory.
func NewBadgerOutput(path string, batchSize int) (*BadgerOutput, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerOutput failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerOutput opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerOutput{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*Mt.Trigger, 0, batchSize),
	}, nil
}

// WriteTrigger queues up a batch of triggers,
// when batchsize is reached, it calls WriteBatch with the new batch
func (bo *BadgerOutput) WriteTrigger(trig *Mt.Trigger) error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	bo.Buffer = append(bo.Buffer, trig)
	if len(bo.Buffer) >= bo.BatchSize {
		return bo.flushLocked()
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bo *BadgerOutput) WriteBatch(trigs []*Mt.Trigger) error {
	wb := bo.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, t := range trigs {
		bo.seq++
		k := TriggerKey(t, bo.seq)
		v, err := TriggerEncode(t)
		if err != nil {
			return fmt.Errorf("trigger encode error: %w", err)
		}
		if err := wb.Set(k, v); err != nil {
			slog.Error("BadgerOutput failed to set key in batch",
				slog.Any("error", err),
				slog.Time("onset", t.Onset),
				slog.String("cycle", t.Cycle))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerOutput failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bo *BadgerOutput) Flush() error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	if len(bo.Buffer) == 0 {
		return nil
	}
	return bo.flushLocked()
}

// flushLocked mimics Flush without locking, called by WriteTrigger
func (bo *BadgerOutput) flushLocked() error {
	err := bo.WriteBatch(bo.Buffer)
	bo.Buffer = bo.Buffer[:0]
	return err
}

// Close returns a Flush error but still attempts to close
func (bo *BadgerOutput) Close() error {
	slog.Info("BadgerOutput closing, flushing buffer",
		slog.Int("bufferSize", len(bo.Buffer)))
	flushErr := bo.Flush()
	closeErr := bo.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerOutput failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerOutput failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerOutput closed successfully")
	return nil
}

func (bo *BadgerOutput) Type() string { return "BadgerDB" }

// TriggerKey creates a composite key
// onset + write sequence + first five letters of the sound
func TriggerKey(trig *Mt.Trigger, seq uint32) []byte {
	key := make([]byte, 8+4+5)

	// Using positive BigEndian integer to convert the onset
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[0:8], uint64(trig.Onset.UnixNano()))

	// Simultaneous triggers (stacks, chords) share an onset
	binary.BigEndian.PutUint32(key[8:12], seq)

	if s, ok := trig.Payload["s"].(string); ok {
		n := min(len(s), 5)
		copy(key[12:12+n], s[:n])
	}

	return key
}

// onsetKey is the smallest key at or after t
func onsetKey(t time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return key
}

// TriggerEncode serializes the trigger for data storage
func TriggerEncode(t *Mt.Trigger) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TriggerDecode deserializes the trigger data
func TriggerDecode(data []byte) (*Mt.Trigger, error) {
	var t Mt.Trigger
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	err := dec.Decode(&t)
	return &t, err
}

// QueryRange retrieves triggers with start <= onset < end.
// Keys sort by onset so the iterator seeks to start and stops past end.
func (bo *BadgerOutput) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	var trigs []*Mt.Trigger
	last := onsetKey(end)

	err := bo.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(onsetKey(start)); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key()[:8], last) >= 0 {
				break
			}

			err := item.Value(func(val []byte) error {
				trig, err := TriggerDecode(val)
				if err != nil {
					slog.Error("BadgerOutput failed to decode trigger", slog.Any("error", err))
					return fmt.Errorf("trigger decode error: %w", err)
				}
				trigs = append(trigs, trig)
				return nil
			})
			if err != nil {
				slog.Error("BadgerOutput callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Debug("BadgerOutput QueryRange", slog.Int("count", len(trigs)))

	return trigs, err
}
