package domain

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// OutputCapture serializes evaluations that share a sandbox and swallows
// the diagnostics their compiles and tests print.
type OutputCapture struct {
	mu sync.Mutex
}

// NewOutputCapture returns an unlocked OutputCapture.
func NewOutputCapture() *OutputCapture {
	return &OutputCapture{}
}

// defaultCapture is shared by evaluators that do not bring their own.
var defaultCapture = NewOutputCapture()

// Acquire blocks until the capture is free and returns the scope holding it.
func (c *OutputCapture) Acquire() *CaptureScope {
	c.mu.Lock()
	return &CaptureScope{owner: c}
}

// CaptureScope is an io.Writer that discards everything written to it. The
// owning capture stays locked until Release.
type CaptureScope struct {
	owner     *OutputCapture
	once      sync.Once
	discarded atomic.Int64
}

// Write implements io.Writer.
func (s *CaptureScope) Write(p []byte) (int, error) {
	s.discarded.Add(int64(len(p)))
	return len(p), nil
}

// Discarded is the number of bytes swallowed so far.
func (s *CaptureScope) Discarded() int64 {
	return s.discarded.Load()
}

// Release unlocks the owning capture. Calling it more than once is a no-op.
func (s *CaptureScope) Release() {
	s.once.Do(func() {
		slog.Debug("released output capture", "discarded_bytes", s.discarded.Load())
		s.owner.mu.Unlock()
	})
}
