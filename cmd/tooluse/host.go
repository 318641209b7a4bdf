package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skosovsky/tooluse"
)

// maxMistakes is the consecutive mistake count after which the console warns that the
// model seems stuck.
const maxMistakes = 3

// consoleHost answers approvals on a terminal and prints results.
type consoleHost struct {
	in          *bufio.Reader
	out         io.Writer
	logger      *slog.Logger
	autoApprove func(tooluse.ToolName) bool

	mu      sync.Mutex
	lines   chan readResult
	reading bool // a reader goroutine owns in until it delivers on lines
}

type readResult struct {
	line string
	err  error
}

func newConsoleHost(in io.Reader, out io.Writer, logger *slog.Logger, autoApprove func(tooluse.ToolName) bool) *consoleHost {
	if autoApprove == nil {
		autoApprove = func(tooluse.ToolName) bool { return false }
	}
	return &consoleHost{
		in:          bufio.NewReader(in),
		out:         out,
		logger:      logger,
		autoApprove: autoApprove,
		lines:       make(chan readResult, 1),
	}
}

// Ask prompts on the console. Tool approvals accept y/yes; any other non-empty answer
// denies with that text as feedback. Completion results are accepted by an empty line.
// End of input counts as an empty line.
func (h *consoleHost) Ask(ctx context.Context, req tooluse.AskRequest) (tooluse.AskResponse, error) {
	if err := ctx.Err(); err != nil {
		return tooluse.AskResponse{}, err
	}
	if req.Kind == tooluse.AskTool && h.autoApprove(req.Tool) {
		h.logger.Debug("auto-approved", "tool", req.Tool, "call_id", req.CallID)
		return tooluse.AskResponse{Approved: true}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch req.Kind {
	case tooluse.AskFollowup:
		fmt.Fprintf(h.out, "\n[%s] %s\n> ", req.Tool, req.Message)
	case tooluse.AskCompletionResult, tooluse.AskFinishSubtask:
		fmt.Fprintf(h.out, "\n[%s] %s\nPress enter to accept, or type feedback: ", req.Kind, req.Message)
	default:
		fmt.Fprintf(h.out, "\n[%s] %s\nApprove? [y/N or feedback]: ", req.Tool, req.Message)
	}

	line, err := h.readLine(ctx)
	if err != nil {
		return tooluse.AskResponse{}, err
	}
	return answer(req.Kind, strings.TrimSpace(line)), nil
}

// readLine returns the next input line or ctx's error, whichever comes first. A read
// abandoned on cancellation is kept and answers the next prompt. Callers hold h.mu.
func (h *consoleHost) readLine(ctx context.Context) (string, error) {
	if !h.reading {
		h.reading = true
		go func() {
			line, err := h.in.ReadString('\n')
			h.lines <- readResult{line: line, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-h.lines:
		h.reading = false
		if r.err != nil && !errors.Is(r.err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return r.line, nil
	}
}

func answer(kind tooluse.AskKind, line string) tooluse.AskResponse {
	switch kind {
	case tooluse.AskFollowup:
		return tooluse.AskResponse{Approved: true, Text: line}
	case tooluse.AskCompletionResult, tooluse.AskFinishSubtask:
		return tooluse.AskResponse{Approved: line == "", Text: line}
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return tooluse.AskResponse{Approved: true}
	case "", "n", "no":
		return tooluse.AskResponse{}
	default:
		return tooluse.AskResponse{Text: line}
	}
}

func (h *consoleHost) HandleError(_ context.Context, action string, err error) {
	h.logger.Error("tool failed", "action", action, "error", err)
}

func (h *consoleHost) PushResult(_ context.Context, res tooluse.ToolResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	status := "ok"
	if res.IsError {
		status = "error"
	}
	fmt.Fprintf(h.out, "\n--- %s %s (%s) ---\n%s\n", res.Tool, res.CallID, status, res.Content)
}

func (h *consoleHost) Echo(_ context.Context, u tooluse.Update) {
	if u.Partial {
		h.logger.Debug("partial", "tool", u.Tool, "call_id", u.CallID, "text", u.Text)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "\n[%s] %s\n", u.Kind, u.Text)
}

// consoleTask is the single task a CLI run drives.
type consoleTask struct {
	id      string
	workdir string
	logger  *slog.Logger

	mu       sync.Mutex
	mistakes int
}

func newConsoleTask(workdir string, logger *slog.Logger) *consoleTask {
	return &consoleTask{id: uuid.NewString(), workdir: workdir, logger: logger}
}

func (t *consoleTask) ID() string      { return t.id }
func (t *consoleTask) Workdir() string { return t.workdir }

func (t *consoleTask) RecordMistake(name tooluse.ToolName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistakes++
	if t.mistakes >= maxMistakes {
		t.logger.Warn("model keeps making mistakes", "tool", name, "consecutive", t.mistakes)
	}
}

func (t *consoleTask) ResetMistakes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistakes = 0
}

func (t *consoleTask) Mistakes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mistakes
}

var (
	_ tooluse.Callbacks = (*consoleHost)(nil)
	_ tooluse.Task      = (*consoleTask)(nil)
)
