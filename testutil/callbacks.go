package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/tooluse"
)

// ReportedError is one HandleError call.
type ReportedError struct {
	Action string
	Err    error
}

// RecordingCallbacks records every host callback. Ask answers with AskFn, or approves
// when AskFn is nil.
type RecordingCallbacks struct {
	AskFn func(ctx context.Context, req tooluse.AskRequest) (tooluse.AskResponse, error)

	mu      sync.Mutex
	asks    []tooluse.AskRequest
	errs    []ReportedError
	results []tooluse.ToolResult
	echoes  []tooluse.Update
}

// Ask records req and answers it.
func (c *RecordingCallbacks) Ask(ctx context.Context, req tooluse.AskRequest) (tooluse.AskResponse, error) {
	c.mu.Lock()
	c.asks = append(c.asks, req)
	fn := c.AskFn
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return tooluse.AskResponse{}, err
	}
	return tooluse.AskResponse{Approved: true}, nil
}

// HandleError records an error report.
func (c *RecordingCallbacks) HandleError(_ context.Context, action string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, ReportedError{Action: action, Err: err})
}

// PushResult records a result.
func (c *RecordingCallbacks) PushResult(_ context.Context, res tooluse.ToolResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

// Echo records a UI update.
func (c *RecordingCallbacks) Echo(_ context.Context, u tooluse.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.echoes = append(c.echoes, u)
}

// Asks returns recorded approval requests.
func (c *RecordingCallbacks) Asks() []tooluse.AskRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tooluse.AskRequest(nil), c.asks...)
}

// Errors returns recorded error reports.
func (c *RecordingCallbacks) Errors() []ReportedError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ReportedError(nil), c.errs...)
}

// Results returns recorded results.
func (c *RecordingCallbacks) Results() []tooluse.ToolResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tooluse.ToolResult(nil), c.results...)
}

// LastResult returns the most recent result, or the zero value.
func (c *RecordingCallbacks) LastResult() tooluse.ToolResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return tooluse.ToolResult{}
	}
	return c.results[len(c.results)-1]
}

// Echoes returns recorded UI updates.
func (c *RecordingCallbacks) Echoes() []tooluse.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tooluse.Update(nil), c.echoes...)
}

var _ tooluse.Callbacks = (*RecordingCallbacks)(nil)
