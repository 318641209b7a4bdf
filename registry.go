package tooluse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DispatchSummary is passed to the after-dispatch hook (WithOnAfterDispatch).
type DispatchSummary struct {
	CallID  string
	Tool    ToolName
	Partial bool
	// Native is true when typed native args were available for the call.
	Native bool
	Error  error
}

// Registry maps tool names to handlers and dispatches invocations to them with optional
// timeout, concurrency cap and panic recovery.
type Registry struct {
	handlers    map[ToolName]Handler // wrapped with middlewares, used by Dispatch
	raw         map[ToolName]Handler // unwrapped, used by Use() to re-apply middlewares from scratch
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		handlers: make(map[ToolName]Handler),
		raw:      make(map[ToolName]Handler),
		sem:      sem,
		opts:     o,
		done:     make(chan struct{}),
	}
}

// Register adds a handler. Stored middlewares (see Use) are applied before registration.
// A handler with the same name is replaced. Safe for concurrent use with Dispatch.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := h.Name()
	r.raw[name] = h
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}
	r.handlers[name] = h
}

// Handlers returns all registered handlers sorted by name.
func (r *Registry) Handlers() []Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]ToolName, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Handler, 0, len(names))
	for _, name := range names {
		out = append(out, r.handlers[name])
	}
	return out
}

// Handler returns the handler for name (after middlewares), or (nil, false).
func (r *Registry) Handler(name ToolName) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Dispatch hands one invocation to its handler. Partial snapshots only reach the
// handler's partial path. A valid tool name without a registered handler yields an error
// result (for complete invocations) and ErrToolNotFound.
// The after-dispatch hook is always invoked.
func (r *Registry) Dispatch(ctx context.Context, task Task, use *ToolUse, cb Callbacks) (err error) {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return ErrShutdown
	default:
	}
	h, ok := r.handlers[use.Name]
	r.running.Add(1)
	r.mu.Unlock()
	defer r.running.Done()

	summary := DispatchSummary{
		CallID:  use.ID,
		Tool:    use.Name,
		Partial: use.Partial,
		Native:  use.NativeArgs != nil,
	}
	start := time.Now()
	defer func() {
		summary.Error = err
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, summary, time.Since(start))
		}
	}()

	if !ok {
		if !use.Partial {
			r.opts.logger.Warn("no handler registered", "tool", use.Name, "call_id", use.ID)
			cb.PushResult(ctx, ToolResult{
				CallID:  use.ID,
				Tool:    use.Name,
				Content: FormatToolError(fmt.Sprintf("Tool %s is not available.", use.Name)),
				IsError: true,
			})
		}
		return ErrToolNotFound
	}

	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				err = &SystemError{Err: &panicError{p: p}}
				r.opts.logger.Error("tool panic", "tool", use.Name, "call_id", use.ID, "error", err.(*SystemError).Err)
				cb.HandleError(ctx, fmt.Sprintf("executing %s", use.Name), err)
				if !use.Partial {
					cb.PushResult(ctx, ToolResult{CallID: use.ID, Tool: use.Name, Content: FormatToolError(err.Error()), IsError: true})
				}
			}
		}()
	}

	if use.Partial {
		return h.Handle(ctx, task, use, cb)
	}

	if err = r.acquireSemaphore(ctx); err != nil {
		return err
	}
	defer r.releaseSemaphore()

	timeout := r.opts.timeout
	if tm, ok := h.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, use)
	}
	err = h.Handle(ctx, task, use, cb)
	if err != nil && timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// Shutdown closes the registry for new invocations and waits for in-flight ones or ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError wraps a recovered panic value for SystemError; used by Registry and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
