package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/internal/config"
	"github.com/skosovsky/tooluse/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestApp(t *testing.T, mutate func(*config.Config)) (*app, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0o600))
	cfg := config.Default()
	cfg.Workdir = dir
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := newApp(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.close()) })
	return a, dir
}

func approveAll(tooluse.ToolName) bool { return true }

func TestAnswer(t *testing.T) {
	tests := []struct {
		kind tooluse.AskKind
		line string
		want tooluse.AskResponse
	}{
		{tooluse.AskTool, "y", tooluse.AskResponse{Approved: true}},
		{tooluse.AskTool, "YES", tooluse.AskResponse{Approved: true}},
		{tooluse.AskTool, "", tooluse.AskResponse{}},
		{tooluse.AskTool, "use src instead", tooluse.AskResponse{Text: "use src instead"}},
		{tooluse.AskFollowup, "src", tooluse.AskResponse{Approved: true, Text: "src"}},
		{tooluse.AskCompletionResult, "", tooluse.AskResponse{Approved: true}},
		{tooluse.AskCompletionResult, "add docs", tooluse.AskResponse{Text: "add docs"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, answer(tt.kind, tt.line), "%s %q", tt.kind, tt.line)
	}
}

func TestConsoleHost_Ask(t *testing.T) {
	var out bytes.Buffer
	h := newConsoleHost(strings.NewReader("y\nno thanks\n"), &out, logging.NewNop(), nil)
	ctx := context.Background()

	resp, err := h.Ask(ctx, tooluse.AskRequest{Tool: tooluse.ListFiles, Kind: tooluse.AskTool, Message: "List src"})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Contains(t, out.String(), "[list_files] List src")

	resp, err = h.Ask(ctx, tooluse.AskRequest{Tool: tooluse.ListFiles, Kind: tooluse.AskTool})
	require.NoError(t, err)
	assert.False(t, resp.Approved)
	assert.Equal(t, "no thanks", resp.Text)

	resp, err = h.Ask(ctx, tooluse.AskRequest{Tool: tooluse.ListFiles, Kind: tooluse.AskTool})
	require.NoError(t, err, "end of input denies")
	assert.False(t, resp.Approved)
}

func TestConsoleHost_AutoApproveAndCancel(t *testing.T) {
	h := newConsoleHost(strings.NewReader(""), &bytes.Buffer{}, logging.NewNop(),
		func(n tooluse.ToolName) bool { return n == tooluse.ReadFile })
	resp, err := h.Ask(context.Background(), tooluse.AskRequest{Tool: tooluse.ReadFile, Kind: tooluse.AskTool})
	require.NoError(t, err)
	assert.True(t, resp.Approved)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Ask(ctx, tooluse.AskRequest{Tool: tooluse.ReadFile, Kind: tooluse.AskTool})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConsoleHost_CancelWhileWaitingForAnswer(t *testing.T) {
	pr, pw := io.Pipe()
	h := newConsoleHost(pr, &bytes.Buffer{}, logging.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := h.Ask(ctx, tooluse.AskRequest{Tool: tooluse.ListFiles, Kind: tooluse.AskTool})
		errc <- err
	}()
	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Ask kept waiting for input after cancellation")
	}

	// A line typed after the cancellation answers the next prompt.
	go func() { _, _ = pw.Write([]byte("y\n")) }()
	resp, err := h.Ask(context.Background(), tooluse.AskRequest{Tool: tooluse.ListFiles, Kind: tooluse.AskTool})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
	require.NoError(t, pw.Close())
}

func TestConsoleTask_Mistakes(t *testing.T) {
	task := newConsoleTask(".", logging.NewNop())
	assert.NotEmpty(t, task.ID())
	for range maxMistakes {
		task.RecordMistake(tooluse.ListFiles)
	}
	assert.Equal(t, maxMistakes, task.Mistakes())
	task.ResetMistakes()
	assert.Zero(t, task.Mistakes())
}

func TestReplay(t *testing.T) {
	a, dir := newTestApp(t, nil)
	var out bytes.Buffer
	host := newConsoleHost(strings.NewReader(""), &out, logging.NewNop(), approveAll)
	task := newConsoleTask(dir, logging.NewNop())

	input := strings.Join([]string{
		`{"id":"1","name":"list_files","arguments":"{\"path\":\"src\"}"}`,
		`{"id":"2","name":"rm_rf","arguments":"{}"}`,
		`---`,
		`{"id":"3","name":"read_file","arguments":"{\"path\":\"src/main.go\"}"}`,
	}, "\n")
	require.NoError(t, replay(context.Background(), a.newDriver(task, host), strings.NewReader(input)))

	got := out.String()
	assert.Contains(t, got, "--- list_files 1 (ok) ---\nmain.go")
	assert.Contains(t, got, "--- rm_rf 2 (error) ---")
	assert.Contains(t, got, "1 | package main")
}

func TestReplay_BadLine(t *testing.T) {
	a, dir := newTestApp(t, nil)
	host := newConsoleHost(strings.NewReader(""), &bytes.Buffer{}, logging.NewNop(), approveAll)
	err := replay(context.Background(), a.newDriver(newConsoleTask(dir, logging.NewNop()), host), strings.NewReader("{oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestStreamMessage(t *testing.T) {
	a, dir := newTestApp(t, func(c *config.Config) { c.SingleToolPerTurn = true })
	var out bytes.Buffer
	host := newConsoleHost(strings.NewReader(""), &out, logging.NewNop(), approveAll)
	task := newConsoleTask(dir, logging.NewNop())

	msg := "Looking around.\n<list_files>\n<path>src</path>\n</list_files>\n" +
		"<list_files><path>.</path></list_files>"
	require.NoError(t, streamMessage(context.Background(), a.newDriver(task, host), strings.NewReader(msg), 7, &out))

	got := out.String()
	assert.Contains(t, got, "Looking around.")
	assert.Contains(t, got, "main.go")
	assert.Contains(t, got, "Only one tool may be used per message.")
	assert.Equal(t, 2, strings.Count(got, "--- list_files"))
}

func TestToolsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"tools", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, rootCmd.Execute())
	got := out.String()
	assert.Contains(t, got, "read_file")
	assert.Regexp(t, `attempt_completion\s+typed\s+registered`, got)
	assert.Regexp(t, `write_to_file\s+-\s+-`, got)
}
