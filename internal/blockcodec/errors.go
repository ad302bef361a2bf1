package blockcodec

import (
	"errors"
	"fmt"
)

// ErrEngineClosed is returned by runs started or still waiting after Close.
var ErrEngineClosed = errors.New("block codec engine is closed")

// errAborted is returned by tasks that stop because another task failed.
// It never escapes Execute: the first real error wins.
var errAborted = errors.New("run aborted")

// ConfigError reports an invalid engine configuration or Execute argument.
// It is returned before any work is scheduled.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BlockError attributes a failure to one block of a run.
type BlockError struct {
	Number int
	Op     string // read, encode, decode, write
	Err    error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %s: %v", e.Number, e.Op, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }
