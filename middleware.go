package tooluse

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps a Handler with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(Handler) Handler

// WithLogging returns a middleware that logs start, end, duration and errors of complete
// invocations. Partial snapshots are logged at debug level only.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return &loggingHandler{handlerBase: handlerBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Handler) Handler {
		return &recoveryHandler{handlerBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that bounds complete invocations of the
// wrapped tool. Named with "Middleware" suffix to avoid collision with ToolOption
// WithTimeout. When a registry timeout also applies, the shorter one wins.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return &timeoutHandler{handlerBase: handlerBase{next: next}, timeout: d}
	}
}

// handlerBase delegates Name and ToolMetadata to the wrapped Handler.
type handlerBase struct{ next Handler }

func (b *handlerBase) Name() ToolName { return b.next.Name() }

func (b *handlerBase) Timeout() time.Duration {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (b *handlerBase) Tags() []string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

type loggingHandler struct {
	handlerBase
	logger *slog.Logger
}

func (m *loggingHandler) Handle(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error {
	if use.Partial {
		m.logger.Debug("tool partial", "tool", use.Name, "call_id", use.ID)
		return m.next.Handle(ctx, task, use, cb)
	}
	m.logger.Info("tool start", "tool", use.Name, "call_id", use.ID, "native", use.NativeArgs != nil, "task", task.ID())
	start := time.Now()
	err := m.next.Handle(ctx, task, use, cb)
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("tool error", "tool", use.Name, "call_id", use.ID, "duration", dur, "error", err)
		return err
	}
	m.logger.Info("tool end", "tool", use.Name, "call_id", use.ID, "duration", dur)
	return nil
}

type recoveryHandler struct{ handlerBase }

func (r *recoveryHandler) Handle(ctx context.Context, task Task, use *ToolUse, cb Callbacks) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &SystemError{Err: &panicError{p: p}}
			cb.HandleError(ctx, fmt.Sprintf("executing %s", use.Name), err)
			if !use.Partial {
				cb.PushResult(ctx, ToolResult{CallID: use.ID, Tool: use.Name, Content: FormatToolError(err.Error()), IsError: true})
			}
		}
	}()
	return r.next.Handle(ctx, task, use, cb)
}

type timeoutHandler struct {
	handlerBase
	timeout time.Duration
}

func (t *timeoutHandler) Timeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return t.handlerBase.Timeout()
}

func (t *timeoutHandler) Handle(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error {
	if t.timeout <= 0 || use.Partial {
		return t.next.Handle(ctx, task, use, cb)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Handle(ctx, task, use, cb)
}

// Use stores the given middlewares and reapplies them from scratch to all registered
// handlers (onion order: first middleware is outermost). Handlers registered later get
// them too. Calling Use again replaces the chain without double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.raw {
		h := raw
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		r.handlers[name] = h
	}
}
