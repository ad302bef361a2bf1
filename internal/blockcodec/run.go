package blockcodec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/harshithgowdakt/granulezip/internal/workerpool"
)

// run holds the state of one Execute call. Tasks share the input stream
// under readMu and the output stream under writeMu. Emission order is
// enforced by a chain of turn channels: turns[i] is closed once block i may
// write, and turns[len(blocks)] is closed when the last block is written.
type run struct {
	ctx     context.Context
	closing <-chan struct{}
	logger  *slog.Logger

	blocks   []Block
	in       io.ReadSeeker
	out      io.Writer
	progress func(done, total int)

	readMu  sync.Mutex
	writeMu sync.Mutex
	written int // next block to emit, guarded by writeMu
	turns   []chan struct{}

	tasks    sync.WaitGroup
	abort    chan struct{}
	failOnce sync.Once
	err      error

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
}

func newRun(ctx context.Context, closing <-chan struct{}, logger *slog.Logger, blocks []Block,
	in io.ReadSeeker, out io.Writer, progress func(done, total int)) *run {
	r := &run{
		ctx:      ctx,
		closing:  closing,
		logger:   logger,
		blocks:   blocks,
		in:       in,
		out:      out,
		progress: progress,
		turns:    make([]chan struct{}, len(blocks)+1),
		abort:    make(chan struct{}),
	}
	for i := range r.turns {
		r.turns[i] = make(chan struct{})
	}
	close(r.turns[0])
	return r
}

// fail records the first error of the run and wakes every waiting task.
func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.err = err
		close(r.abort)
	})
}

// interrupted reports why the run must stop, if it must.
func (r *run) interrupted() error {
	select {
	case <-r.abort:
		return errAborted
	case <-r.closing:
		return ErrEngineClosed
	default:
	}
	return r.ctx.Err()
}

// submit hands the work for b to pool. Errors returned by work, and panics,
// fail the whole run.
func (r *run) submit(pool *workerpool.Pool, b Block, work func(Block) error) error {
	r.tasks.Add(1)
	err := pool.Submit(func() {
		defer r.tasks.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.fail(&BlockError{Number: b.Number, Op: "task", Err: fmt.Errorf("panic: %v", rec)})
			}
		}()
		if err := r.interrupted(); err != nil {
			if err != errAborted {
				r.fail(err)
			}
			return
		}
		if err := work(b); err != nil && err != errAborted {
			r.logger.Error("block failed", "block", b.Number, "error", err)
			r.fail(err)
		}
	})
	if err != nil {
		r.tasks.Done()
	}
	return err
}

// wait blocks until every block is written or the run fails, then until
// every submitted task has returned.
func (r *run) wait() error {
	select {
	case <-r.turns[len(r.blocks)]:
	case <-r.abort:
	}
	r.tasks.Wait()
	return r.err
}

// readAt reads b.Size bytes at b.Offset under the read lock.
func (r *run) readAt(b Block) ([]byte, error) {
	buf := make([]byte, b.Size)

	r.readMu.Lock()
	defer r.readMu.Unlock()
	if _, err := r.in.Seek(b.Offset, io.SeekStart); err != nil {
		return nil, &BlockError{Number: b.Number, Op: "read", Err: err}
	}
	if _, err := io.ReadFull(r.in, buf); err != nil {
		return nil, &BlockError{Number: b.Number, Op: "read", Err: err}
	}
	r.bytesRead.Add(b.Size)
	return buf, nil
}

// awaitTurn blocks until block n is the next block to emit.
func (r *run) awaitTurn(n int) error {
	select {
	case <-r.turns[n]:
		return nil
	case <-r.abort:
		return errAborted
	case <-r.closing:
		return ErrEngineClosed
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// emit writes parts for block n in order and passes the turn to n+1.
// The caller must hold the turn for n.
func (r *run) emit(n int, parts ...[]byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.written != n {
		return &BlockError{Number: n, Op: "write", Err: fmt.Errorf("out of turn: next block is %d", r.written)}
	}
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		if _, err := r.out.Write(p); err != nil {
			return &BlockError{Number: n, Op: "write", Err: err}
		}
		r.bytesWritten.Add(int64(len(p)))
	}
	r.written++
	r.logger.Debug("block written", "block", n, "written", r.written, "total", len(r.blocks))
	if r.progress != nil {
		r.progress(r.written, len(r.blocks))
	}
	close(r.turns[n+1])
	return nil
}
