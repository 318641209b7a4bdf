package tooluse

import (
	"context"
	"log/slog"
	"time"
)

// toolOptions hold optional tool settings for NewTool.
type toolOptions struct {
	timeout time.Duration
	tags    []string
	partial func(context.Context, Task, *ToolUse, Callbacks) error
}

// ToolOption configures a tool built by NewTool.
type ToolOption func(*toolOptions)

// WithTimeout sets a per-tool execution timeout (used by Registry instead of its default).
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for hosts and logs).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithPartial sets the streaming snapshot handler.
func WithPartial(fn func(ctx context.Context, task Task, use *ToolUse, cb Callbacks) error) ToolOption {
	return func(o *toolOptions) {
		o.partial = fn
	}
}

// ParserOption configures a NativeParser.
type ParserOption func(*parserOptions)

type parserOptions struct {
	logger  *slog.Logger
	onParse func(NativeCall, ParseOutcome)
}

// WithParserLogger sets the logger used for rejected calls and dropped parameters.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(o *parserOptions) {
		o.logger = logger
	}
}

// WithOnParse sets a hook called after every parse, successful or not.
func WithOnParse(fn func(NativeCall, ParseOutcome)) ParserOption {
	return func(o *parserOptions) {
		o.onParse = fn
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	logger         *slog.Logger
	onBefore       func(context.Context, *ToolUse)
	onAfter        func(context.Context, DispatchSummary, time.Duration)
}

// WithDefaultTimeout sets the default execution timeout for complete invocations.
// Zero (the default) disables it: Execute may legitimately wait on the user.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits complete executions running at once across all tasks
// sharing the registry. Pass 0 or negative to disable the limit (the default).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Dispatch (reports a SystemError).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(o *registryOptions) {
		o.logger = logger
	}
}

// WithOnBeforeDispatch sets a hook called before each complete invocation is handled.
func WithOnBeforeDispatch(fn func(context.Context, *ToolUse)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterDispatch sets a hook called after each invocation, partial or complete.
func WithOnAfterDispatch(fn func(context.Context, DispatchSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
