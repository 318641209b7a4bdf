package tooluse

import (
	"context"
	"sync"
)

// recorder is an in-package Callbacks double (testutil imports this package).
type recorder struct {
	mu      sync.Mutex
	askFn   func(context.Context, AskRequest) (AskResponse, error)
	asks    []AskRequest
	errs    []error
	actions []string
	results []ToolResult
	echoes  []Update
}

func (r *recorder) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	r.mu.Lock()
	r.asks = append(r.asks, req)
	fn := r.askFn
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return AskResponse{Approved: true}, nil
}

func (r *recorder) HandleError(_ context.Context, action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	r.errs = append(r.errs, err)
}

func (r *recorder) PushResult(_ context.Context, res ToolResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) Echo(_ context.Context, u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echoes = append(r.echoes, u)
}

type stubTask struct {
	mu       sync.Mutex
	mistakes int
}

func (t *stubTask) ID() string      { return "t1" }
func (t *stubTask) Workdir() string { return "." }
func (t *stubTask) RecordMistake(ToolName) {
	t.mu.Lock()
	t.mistakes++
	t.mu.Unlock()
}
func (t *stubTask) ResetMistakes() {
	t.mu.Lock()
	t.mistakes = 0
	t.mu.Unlock()
}

// countingTool counts each contract entry point. P is AttemptCompletionArgs so native
// args can be used directly.
type countingTool struct {
	mu          sync.Mutex
	partials    int
	parses      int
	executes    int
	lastParams  AttemptCompletionArgs
	executeErr  error
	parseErr    error
	partialText []string
}

func (c *countingTool) Name() ToolName { return AttemptCompletion }

func (c *countingTool) ParseLegacy(p LegacyParams) (AttemptCompletionArgs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parses++
	if c.parseErr != nil {
		return AttemptCompletionArgs{}, c.parseErr
	}
	if p.Get(ParamResult) == "" {
		return AttemptCompletionArgs{}, Missing(AttemptCompletion, ParamResult)
	}
	return AttemptCompletionArgs{Result: "legacy:" + p.Get(ParamResult)}, nil
}

func (c *countingTool) Execute(ctx context.Context, _ Task, params AttemptCompletionArgs, cb Callbacks) error {
	c.mu.Lock()
	c.executes++
	c.lastParams = params
	err := c.executeErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	cb.PushResult(ctx, ToolResult{Tool: AttemptCompletion, Content: params.Result})
	return nil
}

func (c *countingTool) HandlePartial(_ context.Context, _ Task, use *ToolUse, _ Callbacks) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partials++
	c.partialText = append(c.partialText, use.Params.Get(ParamResult))
	return nil
}

func (c *countingTool) counts() (partials, parses, executes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partials, c.parses, c.executes
}
