package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// WriteFunc performs database writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter groups writes into transactions of up to size writes and commits
// them in submission order on a single goroutine. After the first failed batch
// later batches are skipped, so a broken export stops early.
type BatchWriter struct {
	db   *sql.DB
	size int
	ctx  context.Context

	mu     sync.Mutex
	buf    []WriteFunc
	closed bool

	batches chan []WriteFunc
	done    chan struct{}
	OnError func(error)

	errMu     sync.Mutex
	err       error
	committed int
}

// NewBatchWriter starts a writer on db. Canceling ctx drops batches that have
// not been handed to the committer yet.
func NewBatchWriter(ctx context.Context, db *sql.DB, size int) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	bw := &BatchWriter{
		db:      db,
		size:    size,
		ctx:     ctx,
		buf:     make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		done:    make(chan struct{}),
	}
	go bw.committer()
	return bw
}

// Submit enqueues a write. It blocks while the committer is busy with earlier
// batches.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	if err := bw.Err(); err != nil {
		return err
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.size)
	select {
	case bw.batches <- batch:
	case <-bw.ctx.Done():
		bw.fail(fmt.Errorf("batch writer: dropping batch of %d writes: %w", len(batch), bw.ctx.Err()))
	}
}

func (bw *BatchWriter) committer() {
	defer close(bw.done)
	for batch := range bw.batches {
		if bw.Err() != nil {
			continue
		}
		if err := bw.commit(batch); err != nil {
			bw.fail(err)
			continue
		}
		bw.errMu.Lock()
		bw.committed += len(batch)
		bw.errMu.Unlock()
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Batches already handed over are committed even when ctx is canceled.
	ctx := context.WithoutCancel(bw.ctx)
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()
	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d writes): %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	first := bw.err == nil
	if first {
		bw.err = err
	}
	bw.errMu.Unlock()
	if first && bw.OnError != nil {
		bw.OnError(err)
	}
}

// Err returns the first error seen by the writer.
func (bw *BatchWriter) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.err
}

// Committed reports how many writes have been committed.
func (bw *BatchWriter) Committed() int {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.committed
}

// Close flushes pending writes, waits for the committer and returns the first
// error seen.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.flushLocked()
	bw.mu.Unlock()

	close(bw.batches)
	<-bw.done
	return bw.Err()
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
