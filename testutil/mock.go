// Package testutil provides test helpers for tooluse (recording callbacks, fake task, mock handler).
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/tooluse"
)

// MockHandler is a configurable Handler for tests.
type MockHandler struct {
	NameVal  tooluse.ToolName
	HandleFn func(ctx context.Context, task tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error

	mu   sync.Mutex
	uses []*tooluse.ToolUse
}

// Name returns the tool name (list_files when unset).
func (m *MockHandler) Name() tooluse.ToolName {
	if m.NameVal != "" {
		return m.NameVal
	}
	return tooluse.ListFiles
}

// Handle records use and runs HandleFn if set.
func (m *MockHandler) Handle(ctx context.Context, task tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	m.mu.Lock()
	m.uses = append(m.uses, use)
	m.mu.Unlock()
	if m.HandleFn != nil {
		return m.HandleFn(ctx, task, use, cb)
	}
	return nil
}

// Uses returns the invocations seen so far.
func (m *MockHandler) Uses() []*tooluse.ToolUse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tooluse.ToolUse(nil), m.uses...)
}

// FakeTask is an in-memory tooluse.Task.
type FakeTask struct {
	IDVal   string
	Dir     string
	mu      sync.Mutex
	mistake int
	byTool  map[tooluse.ToolName]int
}

// ID returns IDVal or "task-1".
func (t *FakeTask) ID() string {
	if t.IDVal != "" {
		return t.IDVal
	}
	return "task-1"
}

// Workdir returns Dir.
func (t *FakeTask) Workdir() string { return t.Dir }

// RecordMistake increments the mistake counters.
func (t *FakeTask) RecordMistake(name tooluse.ToolName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistake++
	if t.byTool == nil {
		t.byTool = make(map[tooluse.ToolName]int)
	}
	t.byTool[name]++
}

// ResetMistakes zeroes the consecutive counter.
func (t *FakeTask) ResetMistakes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistake = 0
}

// Mistakes returns the consecutive mistake count.
func (t *FakeTask) Mistakes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mistake
}

// MistakesFor returns how many mistakes were recorded for name.
func (t *FakeTask) MistakesFor(name tooluse.ToolName) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byTool[name]
}

var (
	_ tooluse.Handler = (*MockHandler)(nil)
	_ tooluse.Task    = (*FakeTask)(nil)
)
