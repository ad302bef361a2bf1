package blockcodec

// PoolDone exposes the pool's shutdown signal to tests.
func (e *Engine) PoolDone() <-chan struct{} { return e.pool.Done() }

// SetBeforeSubmit installs a hook that Execute calls just before it
// submits the run's blocks.
func (e *Engine) SetBeforeSubmit(f func()) { e.beforeSubmit = f }
