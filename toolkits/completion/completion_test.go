package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/testutil"
	"github.com/skosovsky/tooluse/todo"
)

type fixedChecklist struct {
	items []todo.Item
	err   error
}

func (c fixedChecklist) OpenTodos(context.Context, string) ([]todo.Item, error) {
	return todo.Open(c.items), c.err
}

type recordingParent struct {
	taskID, result string
	err            error
}

func (p *recordingParent) FinishSubtask(_ context.Context, taskID, result string) error {
	p.taskID, p.result = taskID, result
	return p.err
}

func complete(result string) *tooluse.ToolUse {
	return &tooluse.ToolUse{
		ID:         "c1",
		Name:       tooluse.AttemptCompletion,
		Params:     tooluse.LegacyParams{tooluse.ParamResult: result},
		NativeArgs: tooluse.AttemptCompletionArgs{Result: result},
	}
}

func TestParseLegacy_RequiresResult(t *testing.T) {
	_, err := New().ParseLegacy(tooluse.LegacyParams{tooluse.ParamResult: "  "})
	var mp *tooluse.MissingParamError
	require.ErrorAs(t, err, &mp)
	assert.Equal(t, tooluse.ParamResult, mp.Param)

	args, err := New().ParseLegacy(tooluse.LegacyParams{tooluse.ParamResult: "done"})
	require.NoError(t, err)
	assert.Equal(t, "done", args.Result)
}

func TestExecute_Accepted(t *testing.T) {
	task := &testutil.FakeTask{}
	cb := &testutil.RecordingCallbacks{}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), task, complete("all green"), cb))

	asks := cb.Asks()
	require.Len(t, asks, 1)
	assert.Equal(t, tooluse.AskCompletionResult, asks[0].Kind)
	assert.Equal(t, "c1", asks[0].CallID)
	res := cb.LastResult()
	assert.Equal(t, "c1", res.CallID)
	assert.False(t, res.IsError)
	assert.Empty(t, res.Content)
}

func TestExecute_Feedback(t *testing.T) {
	cb := &testutil.RecordingCallbacks{AskFn: func(context.Context, tooluse.AskRequest) (tooluse.AskResponse, error) {
		return tooluse.AskResponse{Text: "also update the changelog"}, nil
	}}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), &testutil.FakeTask{}, complete("done"), cb))
	assert.Contains(t, cb.LastResult().Content, "<feedback>\nalso update the changelog\n</feedback>")
}

func TestExecute_EmptyNativeResult(t *testing.T) {
	task := &testutil.FakeTask{}
	cb := &testutil.RecordingCallbacks{}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), task, complete(""), cb))
	assert.Empty(t, cb.Asks())
	assert.True(t, cb.LastResult().IsError)
	assert.Equal(t, 1, task.MistakesFor(tooluse.AttemptCompletion))
}

func TestExecute_OpenTodosBlockCompletion(t *testing.T) {
	items, err := todo.Parse("[x] write code\n[ ] write tests")
	require.NoError(t, err)
	task := &testutil.FakeTask{}
	cb := &testutil.RecordingCallbacks{}
	tool := New(WithChecklist(fixedChecklist{items: items}))

	require.NoError(t, tooluse.Bind(tool).Handle(context.Background(), task, complete("done"), cb))
	assert.Empty(t, cb.Asks())
	res := cb.LastResult()
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "[ ] write tests")
	assert.NotContains(t, res.Content, "write code")
	assert.Equal(t, 1, task.Mistakes())
}

func TestExecute_ChecklistError(t *testing.T) {
	cb := &testutil.RecordingCallbacks{}
	tool := New(WithChecklist(fixedChecklist{err: errors.New("store down")}))
	err := tooluse.Bind(tool).Handle(context.Background(), &testutil.FakeTask{}, complete("done"), cb)
	require.Error(t, err)
	require.Len(t, cb.Errors(), 1)
	assert.True(t, cb.LastResult().IsError)
}

func TestExecute_FinishSubtask(t *testing.T) {
	parent := &recordingParent{}
	task := &testutil.FakeTask{IDVal: "child-1"}
	cb := &testutil.RecordingCallbacks{}
	require.NoError(t, tooluse.Bind(New(WithParent(parent))).Handle(context.Background(), task, complete("report"), cb))

	require.Len(t, cb.Asks(), 1)
	assert.Equal(t, tooluse.AskFinishSubtask, cb.Asks()[0].Kind)
	assert.Equal(t, "child-1", parent.taskID)
	assert.Equal(t, "report", parent.result)
}

func TestExecute_FinishSubtaskDenied(t *testing.T) {
	parent := &recordingParent{}
	cb := &testutil.RecordingCallbacks{AskFn: func(context.Context, tooluse.AskRequest) (tooluse.AskResponse, error) {
		return tooluse.AskResponse{Approved: false, Text: "not yet"}, nil
	}}
	require.NoError(t, tooluse.Bind(New(WithParent(parent))).Handle(context.Background(), &testutil.FakeTask{}, complete("report"), cb))
	assert.Empty(t, parent.result)
	assert.Contains(t, cb.LastResult().Content, "not yet")
}

func TestExecute_CanceledWhileAsking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cb := &testutil.RecordingCallbacks{}
	err := tooluse.Bind(New()).Handle(ctx, &testutil.FakeTask{}, complete("done"), cb)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cb.Errors())
	assert.Empty(t, cb.Results())
}

func TestHandlePartial_Echoes(t *testing.T) {
	cb := &testutil.RecordingCallbacks{}
	use := &tooluse.ToolUse{ID: "c1", Name: tooluse.AttemptCompletion,
		Params: tooluse.LegacyParams{tooluse.ParamResult: "Work in"}, Partial: true}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), &testutil.FakeTask{}, use, cb))
	echoes := cb.Echoes()
	require.Len(t, echoes, 1)
	assert.True(t, echoes[0].Partial)
	assert.Equal(t, "Work in", echoes[0].Text)
	assert.Empty(t, cb.Asks())
}
