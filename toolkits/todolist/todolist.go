// Package todolist implements update_todo_list and the per-task checklist board that
// attempt_completion consults.
package todolist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/todo"
)

// Board keeps the current checklist of each task. Safe for concurrent use.
type Board struct {
	mu    sync.RWMutex
	lists map[string][]todo.Item
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{lists: make(map[string][]todo.Item)}
}

// Set replaces the checklist of taskID.
func (b *Board) Set(taskID string, items []todo.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[taskID] = slices.Clone(items)
}

// Get returns the checklist of taskID.
func (b *Board) Get(taskID string) []todo.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.lists[taskID])
}

// OpenTodos returns the items of taskID that are not completed.
func (b *Board) OpenTodos(_ context.Context, taskID string) ([]todo.Item, error) {
	return todo.Open(b.Get(taskID)), nil
}

// Tool is update_todo_list.
type Tool struct {
	board *Board
}

// New returns the tool writing to board.
func New(board *Board) *Tool {
	return &Tool{board: board}
}

func (t *Tool) Name() tooluse.ToolName { return tooluse.UpdateTodoList }

func (t *Tool) ParseLegacy(p tooluse.LegacyParams) ([]todo.Item, error) {
	raw := p.Get(tooluse.ParamTodos)
	if raw == "" {
		return nil, tooluse.Missing(tooluse.UpdateTodoList, tooluse.ParamTodos)
	}
	items, err := todo.Parse(raw)
	if err != nil {
		return nil, &tooluse.ClientError{Reason: "todos must be a markdown checklist: " + err.Error(), Err: err}
	}
	return items, nil
}

func (t *Tool) Execute(ctx context.Context, task tooluse.Task, items []todo.Item, cb tooluse.Callbacks) error {
	resp, err := cb.Ask(ctx, tooluse.AskRequest{Kind: tooluse.AskTool, Message: todo.Format(items)})
	if err != nil {
		return err
	}
	if !resp.Approved {
		cb.PushResult(ctx, tooluse.ToolResult{Content: tooluse.FormatDenied(resp.Text)})
		return nil
	}
	task.ResetMistakes()
	t.board.Set(task.ID(), items)
	cb.PushResult(ctx, tooluse.ToolResult{
		Content: fmt.Sprintf("Todo list updated: %d items, %d open.", len(items), len(todo.Open(items))),
	})
	return nil
}

func (t *Tool) HandlePartial(ctx context.Context, _ tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	cb.Echo(ctx, tooluse.Update{Kind: string(tooluse.UpdateTodoList), Text: use.Params.Get(tooluse.ParamTodos), Partial: true})
	return nil
}

var (
	_ tooluse.Tool[[]todo.Item] = (*Tool)(nil)
	_ tooluse.PartialHandler    = (*Tool)(nil)
)
