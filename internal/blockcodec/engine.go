// Package blockcodec compresses and decompresses streams block by block on
// a shared worker pool, emitting blocks in their original order.
//
// A compressed stream is a sequence of frames, one per block, in the format
// of the compression package. Blocks are coded independently, so the output
// of a run is identical whatever the number of workers.
package blockcodec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/harshithgowdakt/granulezip/internal/compression"
	"github.com/harshithgowdakt/granulezip/internal/workerpool"
)

// DefaultBlockSize is the raw block size used when none is configured.
const DefaultBlockSize = 25 << 20

// Config configures an Engine.
type Config struct {
	Codec     compression.Codec
	BlockSize int64 // 0 selects DefaultBlockSize
	Workers   int   // 0 selects workerpool.DefaultSize
	Logger    *slog.Logger

	// Progress, if set, is called after each block is written with the
	// number of written blocks and the block count of the run. Calls for a
	// run are serialized.
	Progress func(done, total int)
}

// Stats describes a finished run.
type Stats struct {
	Mode         compression.Mode
	Blocks       int
	BytesRead    int64
	BytesWritten int64
	Duration     time.Duration
}

// Engine runs block-parallel codec passes. Runs may execute concurrently;
// they share only the worker pool.
type Engine struct {
	codec     compression.Codec
	blockSize int64
	logger    *slog.Logger
	progress  func(done, total int)
	pool      *workerpool.Pool

	beforeSubmit func() // test hook, runs after the blocks are known
}

// New validates cfg and starts the engine's worker pool.
func New(cfg Config) (*Engine, error) {
	if cfg.Codec == nil {
		return nil, &ConfigError{Field: "codec", Reason: "no codec configured"}
	}
	if cfg.BlockSize < 0 {
		return nil, &ConfigError{Field: "block size", Reason: fmt.Sprintf("%d is negative", cfg.BlockSize)}
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize > compression.MaxPayloadSize {
		return nil, &ConfigError{Field: "block size", Reason: fmt.Sprintf("%d exceeds the frame limit", cfg.BlockSize)}
	}
	if cfg.Workers < 0 {
		return nil, &ConfigError{Field: "workers", Reason: fmt.Sprintf("%d is negative", cfg.Workers)}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		codec:     cfg.Codec,
		blockSize: cfg.BlockSize,
		logger:    logger.With("component", "blockcodec"),
		progress:  cfg.Progress,
		pool:      workerpool.New(cfg.Workers, workerpool.WithLogger(logger)),
	}, nil
}

// BlockSize returns the raw block size used when compressing.
func (e *Engine) BlockSize() int64 { return e.blockSize }

// Workers returns the degree of parallelism.
func (e *Engine) Workers() int { return e.pool.Size() }

// Close stops the worker pool. Runs still waiting for their turn fail with
// ErrEngineClosed. Close is idempotent.
func (e *Engine) Close() {
	e.pool.Shutdown()
}

// Compress is Execute with compression.ModeCompress.
func (e *Engine) Compress(ctx context.Context, in io.ReadSeeker, out io.Writer) (Stats, error) {
	return e.Execute(ctx, compression.ModeCompress, in, out)
}

// Decompress is Execute with compression.ModeDecompress.
func (e *Engine) Decompress(ctx context.Context, in io.ReadSeeker, out io.Writer) (Stats, error) {
	return e.Execute(ctx, compression.ModeDecompress, in, out)
}

// Execute transforms in into out. It returns after every block is written
// or after the run failed and all of its tasks returned; a failed run may
// leave a partial output.
func (e *Engine) Execute(ctx context.Context, mode compression.Mode, in io.ReadSeeker, out io.Writer) (Stats, error) {
	stats := Stats{Mode: mode}
	if !mode.Valid() {
		return stats, &ConfigError{Field: "mode", Reason: mode.String()}
	}
	if in == nil || out == nil {
		return stats, &ConfigError{Field: "stream", Reason: "input and output are required"}
	}
	select {
	case <-e.pool.Done():
		return stats, ErrEngineClosed
	default:
	}

	start := time.Now()
	logger := e.logger.With("run", uuid.NewString(), "mode", mode.String())

	var blocks []Block
	var work func(*run) func(Block) error
	switch mode {
	case compression.ModeCompress:
		length, err := streamLength(in)
		if err != nil {
			return stats, err
		}
		blocks = splitIntoBlocks(length, e.blockSize)
		work = e.compressBlock
	case compression.ModeDecompress:
		var err error
		if blocks, err = discoverBlocks(in); err != nil {
			return stats, err
		}
		work = e.decompressBlock
	}
	logger.Info("run started", "blocks", len(blocks), "codec", e.codec.Name(), "workers", e.pool.Size())

	r := newRun(ctx, e.pool.Done(), logger, blocks, in, out, e.progress)
	if e.beforeSubmit != nil {
		e.beforeSubmit()
	}
	do := work(r)
	for _, b := range blocks {
		if err := r.submit(e.pool, b, do); err != nil {
			if errors.Is(err, workerpool.ErrPoolClosed) {
				r.fail(ErrEngineClosed)
			} else {
				r.fail(fmt.Errorf("submitting block %d: %w", b.Number, err))
			}
			break
		}
	}
	err := r.wait()

	stats.Blocks = len(blocks)
	stats.BytesRead = r.bytesRead.Load()
	stats.BytesWritten = r.bytesWritten.Load()
	stats.Duration = time.Since(start)
	if err != nil {
		logger.Error("run failed", "error", err, "written", r.written)
		return stats, err
	}
	logger.Info("run finished", "blocks", stats.Blocks, "read", stats.BytesRead,
		"written", stats.BytesWritten, "duration", stats.Duration)
	return stats, nil
}
