// granulezip compresses and decompresses files block by block on all CPUs.
//
// Usage:
//
//	granulezip compress   [flags] <from> <to>
//	granulezip decompress [flags] <from> <to>
//
// A compressed file is a sequence of independently coded frames, each a
// 4-byte little-endian length followed by that many bytes of codec output.
// The same codec must be selected for compression and decompression.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/harshithgowdakt/granulezip/internal/blockcodec"
	"github.com/harshithgowdakt/granulezip/internal/compression"
	"github.com/harshithgowdakt/granulezip/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// usageError marks bad invocations; they exit with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, stopping...")
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	codec      string
	level      int
	blockSize  config.ByteSize
	workers    int
	logLevel   string
	progress   string
	force      bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f flags
	flagSet := pflag.NewFlagSet("granulezip", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&f.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	flagSet.StringVarP(&f.codec, "codec", "c", "", "block codec: gzip, lz4, zstd, s2 or none")
	flagSet.IntVarP(&f.level, "level", "l", 0, "codec level (0 = codec default)")
	flagSet.VarP(&f.blockSize, "block-size", "b", "raw block size when compressing, e.g. 25MiB")
	flagSet.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = CPUs - 1)")
	flagSet.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&f.progress, "progress", "", "auto, always or never")
	flagSet.BoolVarP(&f.force, "force", "f", false, "overwrite an existing output file")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stderr, flagSet)
			return nil
		}
		return usagef("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stderr, flagSet)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "granulezip %s\n", version)
		return nil
	}

	positional := flagSet.Args()
	if len(positional) != 3 {
		printUsage(stderr, flagSet)
		return usagef("expected <mode> <from> <to>, got %d arguments", len(positional))
	}
	mode, err := compression.ParseMode(positional[0])
	if err != nil {
		return usagef("%v", err)
	}
	from, to := positional[1], positional[2]

	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return err
	}
	f.apply(flagSet, &cfg)
	if err := cfg.Validate(); err != nil {
		return usagef("%v", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return execute(ctx, cfg, mode, from, to, f.force, logger, stdout, stderr)
}

// apply copies explicitly set flags over cfg.
func (f *flags) apply(flagSet *pflag.FlagSet, cfg *config.Config) {
	if flagSet.Changed("codec") {
		cfg.Codec = f.codec
	}
	if flagSet.Changed("level") {
		cfg.Level = f.level
	}
	if flagSet.Changed("block-size") {
		cfg.BlockSize = f.blockSize
	}
	if flagSet.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flagSet.Changed("progress") {
		cfg.Progress = f.progress
	}
}

func execute(ctx context.Context, cfg config.Config, mode compression.Mode, from, to string,
	force bool, logger *slog.Logger, stdout, stderr io.Writer) error {
	start := time.Now()

	in, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	inInfo, err := in.Stat()
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	if outInfo, err := os.Stat(to); err == nil && os.SameFile(inInfo, outInfo) {
		return usagef("output %s is the input file", to)
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(to, flag, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return usagef("output %s already exists (use --force to overwrite)", to)
		}
		return fmt.Errorf("creating output: %w", err)
	}

	codec, err := cfg.NewCodec()
	if err != nil {
		out.Close()
		return err
	}
	engineCfg := cfg.EngineConfig(codec, logger)
	bar := newProgress(stderr, cfg.Progress)
	engineCfg.Progress = bar.update

	engine, err := blockcodec.New(engineCfg)
	if err != nil {
		out.Close()
		return err
	}
	defer engine.Close()

	stats, err := engine.Execute(ctx, mode, in, out)
	bar.finish()
	if err != nil {
		out.Close()
		return fmt.Errorf("%s %s: %w", mode, from, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	fmt.Fprintf(stdout, "%s: %s -> %s (%s, %d blocks, %s codec, %d workers)\n",
		mode, humanize.IBytes(uint64(stats.BytesRead)), humanize.IBytes(uint64(stats.BytesWritten)),
		ratio(stats), stats.Blocks, codec.Name(), engine.Workers())
	fmt.Fprintf(stdout, "RunTime %s\n", formatElapsed(time.Since(start)))
	return nil
}

func ratio(s blockcodec.Stats) string {
	if s.BytesRead == 0 || s.BytesWritten == 0 {
		return "ratio n/a"
	}
	return fmt.Sprintf("ratio %.2f", float64(s.BytesWritten)/float64(s.BytesRead))
}

// formatElapsed renders d as hh:mm:ss.cc.
func formatElapsed(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	cs := int(d.Milliseconds()/10) % 100
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, cs)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `granulezip - block-parallel file compression

Usage:
  granulezip compress   [flags] <from> <to>
  granulezip decompress [flags] <from> <to>

Examples:
  granulezip compress big.iso big.iso.gz
  granulezip compress --codec zstd --block-size 64MiB db.dump db.dump.zst
  granulezip decompress --codec zstd db.dump.zst db.dump

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
