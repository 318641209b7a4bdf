// Package completion implements attempt_completion.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/todo"
)

// Checklist reports the todo items of a task that are still open.
type Checklist interface {
	OpenTodos(ctx context.Context, taskID string) ([]todo.Item, error)
}

// Parent receives the result of a finished sub-task.
type Parent interface {
	FinishSubtask(ctx context.Context, taskID, result string) error
}

// Tool is attempt_completion. Typed: native calls arrive as AttemptCompletionArgs.
type Tool struct {
	checklist Checklist
	parent    Parent
	logger    *slog.Logger
}

// Option configures the Tool.
type Option func(*Tool)

// WithChecklist refuses completion while c reports open items.
func WithChecklist(c Checklist) Option {
	return func(t *Tool) {
		t.checklist = c
	}
}

// WithParent hands the result to p (after approval) instead of asking for feedback.
func WithParent(p Parent) Option {
	return func(t *Tool) {
		t.parent = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tool) {
		t.logger = l
	}
}

// New creates the tool.
func New(opts ...Option) *Tool {
	t := &Tool{}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

func (t *Tool) Name() tooluse.ToolName { return tooluse.AttemptCompletion }

func (t *Tool) ParseLegacy(p tooluse.LegacyParams) (tooluse.AttemptCompletionArgs, error) {
	result := p.Get(tooluse.ParamResult)
	if strings.TrimSpace(result) == "" {
		return tooluse.AttemptCompletionArgs{}, tooluse.Missing(tooluse.AttemptCompletion, tooluse.ParamResult)
	}
	return tooluse.AttemptCompletionArgs{Result: result}, nil
}

func (t *Tool) Execute(ctx context.Context, task tooluse.Task, args tooluse.AttemptCompletionArgs, cb tooluse.Callbacks) error {
	// Native args only guarantee the key is present.
	if strings.TrimSpace(args.Result) == "" {
		tooluse.RejectMissing(ctx, task, cb, tooluse.AttemptCompletion, tooluse.ParamResult)
		return nil
	}

	if t.checklist != nil {
		open, err := t.checklist.OpenTodos(ctx, task.ID())
		if err != nil {
			return fmt.Errorf("load todos: %w", err)
		}
		if len(open) > 0 {
			t.logger.Info("completion blocked by open todos", "task", task.ID(), "open", len(open))
			tooluse.Reject(ctx, task, cb, tooluse.AttemptCompletion,
				"Cannot complete the task while there are unfinished todos:\n"+todo.Format(open)+
					"Finish them or update the todo list before attempting completion again.")
			return nil
		}
	}

	task.ResetMistakes()
	cb.Echo(ctx, tooluse.Update{Kind: string(tooluse.AskCompletionResult), Text: args.Result})

	if t.parent != nil {
		return t.finishSubtask(ctx, task, args.Result, cb)
	}

	resp, err := cb.Ask(ctx, tooluse.AskRequest{Kind: tooluse.AskCompletionResult, Message: args.Result})
	if err != nil {
		return err
	}
	if resp.Approved && resp.Text == "" {
		cb.PushResult(ctx, tooluse.ToolResult{})
		return nil
	}
	cb.PushResult(ctx, tooluse.ToolResult{Content: "The user has provided feedback on the results. " +
		"Consider their input to continue the task, and then attempt completion again.\n<feedback>\n" +
		resp.Text + "\n</feedback>"})
	return nil
}

func (t *Tool) finishSubtask(ctx context.Context, task tooluse.Task, result string, cb tooluse.Callbacks) error {
	resp, err := cb.Ask(ctx, tooluse.AskRequest{Kind: tooluse.AskFinishSubtask, Message: result})
	if err != nil {
		return err
	}
	if !resp.Approved {
		cb.PushResult(ctx, tooluse.ToolResult{Content: tooluse.FormatDenied(resp.Text)})
		return nil
	}
	if err := t.parent.FinishSubtask(ctx, task.ID(), result); err != nil {
		return fmt.Errorf("finish subtask %s: %w", task.ID(), err)
	}
	cb.PushResult(ctx, tooluse.ToolResult{Content: "Sub-task result handed to the parent task."})
	return nil
}

func (t *Tool) HandlePartial(ctx context.Context, _ tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	cb.Echo(ctx, tooluse.Update{
		Kind:    string(tooluse.AskCompletionResult),
		Text:    use.Params.Get(tooluse.ParamResult),
		Partial: true,
	})
	return nil
}

var (
	_ tooluse.Tool[tooluse.AttemptCompletionArgs] = (*Tool)(nil)
	_ tooluse.PartialHandler                      = (*Tool)(nil)
)
