package tooluse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Tool is the per-tool dispatch contract. P is the tool's typed execution parameters.
//
// ParseLegacy maps legacy string parameters to P and must fail explicitly on malformed
// input. Execute receives fully typed parameters whichever protocol produced them; it
// owns reporting its own failures through cb and returns an error only for failures it
// did not report (or for cancellation).
type Tool[P any] interface {
	Name() ToolName
	ParseLegacy(params LegacyParams) (P, error)
	Execute(ctx context.Context, task Task, params P, cb Callbacks) error
}

// PartialHandler is optionally implemented by tools that echo streaming snapshots to the
// UI. HandlePartial must be cheap, must not block on the user and must never perform the
// tool's real side effect.
type PartialHandler interface {
	HandlePartial(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error
}

// ToolMetadata is optionally implemented by tools (NewTool tools always do).
// Registry uses Timeout() to override its default execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
}

// Handler is the type-erased form of a Tool that the Registry dispatches to.
type Handler interface {
	Name() ToolName
	// Handle runs the orchestration for one invocation: partial snapshots go to
	// HandlePartial, complete ones are resolved and executed.
	Handle(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error
}

// Bind adapts t to a Handler.
func Bind[P any](t Tool[P]) Handler {
	return &boundTool[P]{tool: t}
}

type boundTool[P any] struct {
	tool Tool[P]
}

func (b *boundTool[P]) Name() ToolName { return b.tool.Name() }

func (b *boundTool[P]) Handle(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error {
	name := b.tool.Name()
	cb = scopedCallbacks{Callbacks: cb, id: use.ID, tool: name}
	if use.Partial {
		if ph, ok := b.tool.(PartialHandler); ok {
			return ph.HandlePartial(ctx, task, use, cb)
		}
		return nil
	}

	params, err := b.resolve(use)
	if err != nil {
		task.RecordMistake(name)
		cb.HandleError(ctx, fmt.Sprintf("parsing %s parameters", name), err)
		cb.PushResult(ctx, ToolResult{CallID: use.ID, Tool: name, Content: modelMessage(name, err), IsError: true})
		if IsClientError(err) || IsSystemError(err) {
			return err
		}
		return &ClientError{Reason: err.Error(), Err: fmt.Errorf("%w: %w", ErrInvalidParams, err)}
	}

	if err := b.tool.Execute(ctx, task, params, cb); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		cb.HandleError(ctx, fmt.Sprintf("executing %s", name), err)
		cb.PushResult(ctx, ToolResult{CallID: use.ID, Tool: name, Content: modelMessage(name, err), IsError: true})
		return err
	}
	return nil
}

// resolve prefers native args and only falls back to ParseLegacy when they are absent.
func (b *boundTool[P]) resolve(use *ToolUse) (P, error) {
	var zero P
	if use.NativeArgs != nil {
		params, ok := use.NativeArgs.(P)
		if !ok {
			return zero, &SystemError{Err: fmt.Errorf("native args %T do not fit %s", use.NativeArgs, b.tool.Name())}
		}
		if err := validateParams(params); err != nil {
			return zero, err
		}
		return params, nil
	}
	params, err := b.tool.ParseLegacy(use.Params)
	if err != nil {
		return zero, err
	}
	if err := validateParams(params); err != nil {
		return zero, err
	}
	return params, nil
}

func (b *boundTool[P]) Timeout() time.Duration {
	if tm, ok := b.tool.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (b *boundTool[P]) Tags() []string {
	if tm, ok := b.tool.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

// Reject records a mistake on task and pushes msg as an error result. Tools use it for
// input the model can correct on its next turn.
func Reject(ctx context.Context, task Task, cb Callbacks, tool ToolName, msg string) {
	task.RecordMistake(tool)
	cb.PushResult(ctx, ToolResult{Tool: tool, Content: FormatToolError(msg), IsError: true})
}

// RejectMissing is Reject for a required parameter left empty.
func RejectMissing(ctx context.Context, task Task, cb Callbacks, tool ToolName, param ParamName) {
	task.RecordMistake(tool)
	cb.PushResult(ctx, ToolResult{Tool: tool, Content: FormatMissingParam(tool, param), IsError: true})
}

// scopedCallbacks fills in the call id and tool name on everything a tool sends to the
// host, so Execute can push results without knowing which call it serves.
type scopedCallbacks struct {
	Callbacks
	id   string
	tool ToolName
}

func (s scopedCallbacks) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	if req.CallID == "" {
		req.CallID = s.id
	}
	if req.Tool == "" {
		req.Tool = s.tool
	}
	return s.Callbacks.Ask(ctx, req)
}

func (s scopedCallbacks) PushResult(ctx context.Context, res ToolResult) {
	if res.CallID == "" {
		res.CallID = s.id
	}
	if res.Tool == "" {
		res.Tool = s.tool
	}
	s.Callbacks.PushResult(ctx, res)
}

func (s scopedCallbacks) Echo(ctx context.Context, u Update) {
	if u.CallID == "" {
		u.CallID = s.id
	}
	if u.Tool == "" {
		u.Tool = s.tool
	}
	s.Callbacks.Echo(ctx, u)
}

// funcTool is the Tool built by NewTool.
type funcTool[P any] struct {
	name    ToolName
	parse   func(LegacyParams) (P, error)
	execute func(context.Context, Task, P, Callbacks) error
	opts    toolOptions
}

// NewTool builds a Tool from a legacy parser and an execute function. parse and execute
// must be non-nil. Use WithPartial to echo streaming snapshots.
func NewTool[P any](
	name ToolName,
	parse func(LegacyParams) (P, error),
	execute func(ctx context.Context, task Task, params P, cb Callbacks) error,
	opts ...ToolOption,
) (Tool[P], error) {
	if !IsToolName(string(name)) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if parse == nil || execute == nil {
		return nil, fmt.Errorf("tool %s: parse and execute must not be nil", name)
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &funcTool[P]{name: name, parse: parse, execute: execute, opts: o}, nil
}

func (t *funcTool[P]) Name() ToolName { return t.name }

func (t *funcTool[P]) ParseLegacy(params LegacyParams) (P, error) { return t.parse(params) }

func (t *funcTool[P]) Execute(ctx context.Context, task Task, params P, cb Callbacks) error {
	return t.execute(ctx, task, params, cb)
}

func (t *funcTool[P]) HandlePartial(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error {
	if t.opts.partial == nil {
		return nil
	}
	return t.opts.partial(ctx, task, use, cb)
}

func (t *funcTool[P]) Timeout() time.Duration { return t.opts.timeout }
func (t *funcTool[P]) Tags() []string         { return slices.Clone(t.opts.tags) }

var (
	_ Handler        = (*boundTool[struct{}])(nil)
	_ ToolMetadata   = (*boundTool[struct{}])(nil)
	_ Tool[struct{}] = (*funcTool[struct{}])(nil)
	_ PartialHandler = (*funcTool[struct{}])(nil)
	_ ToolMetadata   = (*funcTool[struct{}])(nil)
)
