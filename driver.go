package tooluse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Driver feeds the invocations of one task to a Registry in emission order. It never
// runs two invocations at once: Handle blocks until the previous invocation, including
// any approval wait inside Execute, has returned.
type Driver struct {
	reg    *Registry
	parser *NativeParser
	task   Task
	cb     Callbacks
	logger *slog.Logger
	single bool

	mu   sync.Mutex
	used ToolName // first tool executed in the current turn
}

// NewDriver creates a Driver for task.
func NewDriver(reg *Registry, task Task, cb Callbacks, opts ...DriverOption) *Driver {
	o := driverOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.parser == nil {
		o.parser = NewNativeParser(WithParserLogger(o.logger))
	}
	return &Driver{
		reg:    reg,
		parser: o.parser,
		task:   task,
		cb:     cb,
		logger: o.logger,
		single: o.singleToolPerTurn,
	}
}

// HandleNative parses call and dispatches it. A call the parser rejects is not executed;
// an error result carrying its id is pushed instead and the stream goes on.
func (d *Driver) HandleNative(ctx context.Context, call NativeCall) error {
	use, err := d.parser.Parse(call)
	if err != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.cb.PushResult(ctx, ToolResult{
			CallID:  call.ID,
			Tool:    ToolName(call.Name),
			Content: modelMessage(ToolName(call.Name), err),
			IsError: true,
		})
		return nil
	}
	return d.Handle(ctx, use)
}

// Handle dispatches one invocation, partial or complete. Failures of the invocation
// itself are reported through the callbacks and do not stop the stream; Handle only
// returns an error for cancellation or a shut down registry.
func (d *Driver) Handle(ctx context.Context, use *ToolUse) error {
	if use == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	if d.single && d.used != "" {
		if use.Partial {
			return nil
		}
		d.cb.PushResult(ctx, ToolResult{
			CallID: use.ID,
			Tool:   use.Name,
			Content: FormatToolError(fmt.Sprintf(
				"Tool [%s] was not executed because a tool has already been used in this message (%s). "+
					"Only one tool may be used per message.", use.Name, d.used)),
			IsError: true,
		})
		return nil
	}

	err := d.reg.Dispatch(ctx, d.task, use.Clone(), d.cb)
	if !use.Partial {
		d.used = use.Name
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrShutdown):
		return err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return err
	default:
		d.logger.Debug("invocation failed", "tool", use.Name, "call_id", use.ID, "error", err)
		return nil
	}
}

// Run handles invocations from in until it is closed or ctx is done. Cancellation is
// observed between invocations; an Execute in flight sees it at its own wait points.
func (d *Driver) Run(ctx context.Context, in <-chan *ToolUse) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case use, ok := <-in:
			if !ok {
				return nil
			}
			if err := d.Handle(ctx, use); err != nil {
				return err
			}
		}
	}
}

// EndTurn marks the end of one model message.
func (d *Driver) EndTurn() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.used = ""
}

// DriverOption configures a Driver.
type DriverOption func(*driverOptions)

type driverOptions struct {
	logger            *slog.Logger
	parser            *NativeParser
	singleToolPerTurn bool
}

// WithDriverLogger sets the driver logger (also used by the default parser).
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(o *driverOptions) {
		o.logger = logger
	}
}

// WithParser sets the native parser used by HandleNative.
func WithParser(p *NativeParser) DriverOption {
	return func(o *driverOptions) {
		o.parser = p
	}
}

// WithSingleToolPerTurn refuses every complete invocation after the first one of a turn.
func WithSingleToolPerTurn() DriverOption {
	return func(o *driverOptions) {
		o.singleToolPerTurn = true
	}
}
