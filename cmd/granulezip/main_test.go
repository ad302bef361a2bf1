package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("GRANULEZIP_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestCompressDecompressFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.txt")
	packed := filepath.Join(dir, "input.gz")
	restored := filepath.Join(dir, "restored.txt")

	content := []byte(strings.Repeat("granulezip cli round trip\n", 20000))
	require.NoError(t, os.WriteFile(src, content, 0o644))

	for _, codec := range []string{"gzip", "zstd", "lz4"} {
		t.Run(codec, func(t *testing.T) {
			stdout, _, err := runCLI(t, "compress", "--codec", codec, "--block-size", "64KiB", "-w", "3", "--force", src, packed)
			require.NoError(t, err)
			assert.Contains(t, stdout, "compress:")
			assert.Contains(t, stdout, "RunTime ")

			_, _, err = runCLI(t, "DECOMPRESS", "--codec", codec, "--force", packed, restored)
			require.NoError(t, err)

			got, err := os.ReadFile(restored)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("codec: none\nblock_size: 1KiB\n"), 0o644))

	src := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(src, make([]byte, 3000), 0o644))

	// codec from the file, block size from the flag
	out := filepath.Join(dir, "out")
	_, _, err := runCLI(t, "compress", "--config", cfgPath, "--block-size", "2KiB", src, out)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(3000+2*4), info.Size(), "two raw frames expected")
}

func TestRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	dst := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("keep me"), 0o644))

	_, _, err := runCLI(t, "compress", src, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestRefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	link := filepath.Join(dir, "link")
	data := bytes.Repeat([]byte("granulezip "), 1300)
	require.NoError(t, os.WriteFile(src, data, 0o644))
	require.NoError(t, os.Symlink(src, link))

	for _, to := range []string{src, link} {
		_, _, err := runCLI(t, "compress", "--force", src, to)
		require.Error(t, err)
		var ue interface{ ExitCode() int }
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, 2, ue.ExitCode())
		assert.Contains(t, err.Error(), "is the input file")
	}

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"compress", "only-one"},
		{"archive", "a", "b"},
		{"compress", "--codec", "brotli", "a", "b"},
		{"compress", "--block-size", "huge", "a", "b"},
		{"compress", "--no-such-flag", "a", "b"},
	}
	for _, args := range tests {
		_, _, err := runCLI(t, args...)
		require.Error(t, err, "args %v", args)
		coder, ok := err.(interface{ ExitCode() int })
		require.True(t, ok, "args %v: %v", args, err)
		assert.Equal(t, 2, coder.ExitCode())
	}
}

func TestMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "compress", filepath.Join(dir, "nope"), filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "opening input")
}

func TestCorruptInputFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(src, []byte{0x09, 0x00, 0x00, 0x00, 0x01}, 0o644))

	_, _, err := runCLI(t, "decompress", src, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "exceeds remaining")
}

func TestVersionAndHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "granulezip dev\n", stdout)

	_, stderr, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "--block-size")
}

func TestProgressAlways(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "always")
	p.update(1, 4)
	p.update(1, 4)
	p.update(4, 4)
	p.finish()
	assert.Equal(t, "\rDone: 25%\rDone: 100%\n", buf.String())

	buf.Reset()
	p = newProgress(&buf, "auto")
	p.update(1, 2)
	p.finish()
	assert.Empty(t, buf.String())
}

func TestFormatElapsed(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 450*time.Millisecond
	assert.Equal(t, "01:02:03.45", formatElapsed(d))
}
