// Package subtask implements new_task: delegating a message to a child task running in
// another mode.
package subtask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/modes"
	"github.com/skosovsky/tooluse/todo"
)

// Request describes the child task to start.
type Request struct {
	ParentID string
	Mode     modes.Mode
	Message  string
	Todos    []todo.Item
}

// Spawner starts child tasks.
type Spawner interface {
	Spawn(ctx context.Context, req Request) (childID string, err error)
}

// SpawnFunc adapts a function to Spawner.
type SpawnFunc func(ctx context.Context, req Request) (string, error)

// Spawn calls f.
func (f SpawnFunc) Spawn(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Params are the resolved new_task parameters.
type Params struct {
	Mode    string
	Message string
	Todos   []todo.Item
}

// Tool is new_task. It has no native args: native calls are resolved through
// ParseLegacy like streamed ones.
type Tool struct {
	modes        *modes.Registry
	spawner      Spawner
	requireTodos bool
}

// Option configures the Tool.
type Option func(*Tool)

// WithRequiredTodos makes the todos parameter mandatory.
func WithRequiredTodos() Option {
	return func(t *Tool) {
		t.requireTodos = true
	}
}

// New creates the tool. Modes are validated against reg.
func New(reg *modes.Registry, spawner Spawner, opts ...Option) *Tool {
	t := &Tool{modes: reg, spawner: spawner}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Name() tooluse.ToolName { return tooluse.NewTask }

func (t *Tool) ParseLegacy(p tooluse.LegacyParams) (Params, error) {
	mode := strings.TrimSpace(p.Get(tooluse.ParamMode))
	if mode == "" {
		return Params{}, tooluse.Missing(tooluse.NewTask, tooluse.ParamMode)
	}
	message := p.Get(tooluse.ParamMessage)
	if strings.TrimSpace(message) == "" {
		return Params{}, tooluse.Missing(tooluse.NewTask, tooluse.ParamMessage)
	}

	var items []todo.Item
	switch raw := p.Get(tooluse.ParamTodos); {
	case strings.TrimSpace(raw) != "":
		var err error
		items, err = todo.Parse(raw)
		if err != nil {
			return Params{}, &tooluse.ClientError{
				Reason: "Invalid todos format: must be a markdown checklist (" + err.Error() + ")",
				Err:    err,
			}
		}
	case t.requireTodos:
		return Params{}, tooluse.Missing(tooluse.NewTask, tooluse.ParamTodos)
	}

	return Params{Mode: mode, Message: Unescape(message), Todos: items}, nil
}

// Unescape turns the doubly escaped mention marker \\@ into \@. Text that is already
// single-escaped is left alone, so applying it twice changes nothing more.
func Unescape(message string) string {
	return strings.ReplaceAll(message, `\\@`, `\@`)
}

func (t *Tool) Execute(ctx context.Context, task tooluse.Task, p Params, cb tooluse.Callbacks) error {
	mode, err := t.modes.Lookup(p.Mode)
	if err != nil {
		if errors.Is(err, modes.ErrUnknownMode) {
			tooluse.Reject(ctx, task, cb, tooluse.NewTask, fmt.Sprintf("Invalid mode: %s. Available modes: %s.",
				p.Mode, strings.Join(t.modes.Slugs(), ", ")))
			return nil
		}
		return err
	}
	task.ResetMistakes()

	resp, err := cb.Ask(ctx, tooluse.AskRequest{
		Kind:    tooluse.AskTool,
		Message: fmt.Sprintf("Start a sub-task in %s mode:\n%s", mode.Name, p.Message),
	})
	if err != nil {
		return err
	}
	if !resp.Approved {
		cb.PushResult(ctx, tooluse.ToolResult{Content: tooluse.FormatDenied(resp.Text)})
		return nil
	}

	childID, err := t.spawner.Spawn(ctx, Request{ParentID: task.ID(), Mode: mode, Message: p.Message, Todos: p.Todos})
	if err != nil {
		return fmt.Errorf("spawn %s sub-task: %w", mode.Slug, err)
	}
	cb.PushResult(ctx, tooluse.ToolResult{Content: fmt.Sprintf(
		"Successfully created new task %s in %s mode with message: %s and %d todo items",
		childID, mode.Name, p.Message, len(p.Todos))})
	return nil
}

func (t *Tool) HandlePartial(ctx context.Context, _ tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	cb.Echo(ctx, tooluse.Update{
		Kind:    string(tooluse.NewTask),
		Text:    use.Params.Get(tooluse.ParamMode) + ": " + Unescape(use.Params.Get(tooluse.ParamMessage)),
		Partial: true,
	})
	return nil
}

var (
	_ tooluse.Tool[Params]   = (*Tool)(nil)
	_ tooluse.PartialHandler = (*Tool)(nil)
)
