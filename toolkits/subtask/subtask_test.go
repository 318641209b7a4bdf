package subtask

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/modes"
	"github.com/skosovsky/tooluse/testutil"
	"github.com/skosovsky/tooluse/todo"
)

type spawnRecorder struct {
	reqs []Request
	err  error
}

func (s *spawnRecorder) Spawn(_ context.Context, req Request) (string, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return "", s.err
	}
	return "child-1", nil
}

func newTaskUse(params tooluse.LegacyParams) *tooluse.ToolUse {
	return &tooluse.ToolUse{ID: "n1", Name: tooluse.NewTask, Params: params}
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, `see \@file`, Unescape(`see \\@file`))
	assert.Equal(t, `see \@file`, Unescape(`see \@file`))
	assert.Equal(t, Unescape(`a \\@b`), Unescape(Unescape(`a \\@b`)))
	assert.Equal(t, "plain @mention", Unescape("plain @mention"))
}

func TestParseLegacy(t *testing.T) {
	tool := New(modes.Default(), &spawnRecorder{})
	tests := []struct {
		name    string
		params  tooluse.LegacyParams
		missing tooluse.ParamName
		client  bool
	}{
		{name: "missing mode", params: tooluse.LegacyParams{tooluse.ParamMessage: "m"}, missing: tooluse.ParamMode},
		{name: "missing message", params: tooluse.LegacyParams{tooluse.ParamMode: "code"}, missing: tooluse.ParamMessage},
		{name: "bad todos", params: tooluse.LegacyParams{
			tooluse.ParamMode: "code", tooluse.ParamMessage: "m", tooluse.ParamTodos: "not a list",
		}, client: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.ParseLegacy(tt.params)
			require.Error(t, err)
			if tt.missing != "" {
				var mp *tooluse.MissingParamError
				require.ErrorAs(t, err, &mp)
				assert.Equal(t, tt.missing, mp.Param)
			}
			if tt.client {
				assert.True(t, tooluse.IsClientError(err))
				assert.ErrorIs(t, err, todo.ErrFormat)
			}
		})
	}
}

func TestParseLegacy_RequiredTodos(t *testing.T) {
	tool := New(modes.Default(), &spawnRecorder{}, WithRequiredTodos())
	_, err := tool.ParseLegacy(tooluse.LegacyParams{tooluse.ParamMode: "code", tooluse.ParamMessage: "m"})
	var mp *tooluse.MissingParamError
	require.ErrorAs(t, err, &mp)
	assert.Equal(t, tooluse.ParamTodos, mp.Param)
}

func TestExecute_Spawns(t *testing.T) {
	sp := &spawnRecorder{}
	task := &testutil.FakeTask{IDVal: "parent"}
	cb := &testutil.RecordingCallbacks{}
	use := newTaskUse(tooluse.LegacyParams{
		tooluse.ParamMode:    "debug",
		tooluse.ParamMessage: `fix \\@src/main.go`,
		tooluse.ParamTodos:   "[ ] reproduce\n[ ] fix",
	})

	require.NoError(t, tooluse.Bind(New(modes.Default(), sp)).Handle(context.Background(), task, use, cb))
	require.Len(t, sp.reqs, 1)
	req := sp.reqs[0]
	assert.Equal(t, "parent", req.ParentID)
	assert.Equal(t, "debug", req.Mode.Slug)
	assert.Equal(t, `fix \@src/main.go`, req.Message)
	assert.Len(t, req.Todos, 2)
	require.Len(t, cb.Asks(), 1)
	assert.Equal(t, tooluse.AskTool, cb.Asks()[0].Kind)
	assert.Contains(t, cb.LastResult().Content, "child-1")
	assert.False(t, cb.LastResult().IsError)
}

func TestExecute_UnknownModeRejectedBeforeApproval(t *testing.T) {
	sp := &spawnRecorder{}
	task := &testutil.FakeTask{}
	cb := &testutil.RecordingCallbacks{}
	use := newTaskUse(tooluse.LegacyParams{tooluse.ParamMode: "wizard", tooluse.ParamMessage: "m"})

	require.NoError(t, tooluse.Bind(New(modes.Default(), sp)).Handle(context.Background(), task, use, cb))
	assert.Empty(t, cb.Asks())
	assert.Empty(t, sp.reqs)
	assert.True(t, cb.LastResult().IsError)
	assert.Contains(t, cb.LastResult().Content, "Invalid mode: wizard")
	assert.Equal(t, 1, task.MistakesFor(tooluse.NewTask))
}

func TestExecute_Denied(t *testing.T) {
	sp := &spawnRecorder{}
	cb := &testutil.RecordingCallbacks{AskFn: func(context.Context, tooluse.AskRequest) (tooluse.AskResponse, error) {
		return tooluse.AskResponse{Text: "too early"}, nil
	}}
	use := newTaskUse(tooluse.LegacyParams{tooluse.ParamMode: "code", tooluse.ParamMessage: "m"})
	require.NoError(t, tooluse.Bind(New(modes.Default(), sp)).Handle(context.Background(), &testutil.FakeTask{}, use, cb))
	assert.Empty(t, sp.reqs)
	assert.Contains(t, cb.LastResult().Content, "too early")
}

func TestExecute_SpawnFailure(t *testing.T) {
	sp := &spawnRecorder{err: errors.New("quota exceeded")}
	cb := &testutil.RecordingCallbacks{}
	use := newTaskUse(tooluse.LegacyParams{tooluse.ParamMode: "code", tooluse.ParamMessage: "m"})
	err := tooluse.Bind(New(modes.Default(), sp)).Handle(context.Background(), &testutil.FakeTask{}, use, cb)
	require.Error(t, err)
	require.Len(t, cb.Errors(), 1)
	assert.True(t, cb.LastResult().IsError)
}

func TestSpawnFunc(t *testing.T) {
	var got Request
	f := SpawnFunc(func(_ context.Context, req Request) (string, error) {
		got = req
		return "x", nil
	})
	id, err := f.Spawn(context.Background(), Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "x", id)
	assert.Equal(t, "hi", got.Message)
}

func TestHandlePartial_NoSpawn(t *testing.T) {
	sp := &spawnRecorder{}
	cb := &testutil.RecordingCallbacks{}
	use := newTaskUse(tooluse.LegacyParams{tooluse.ParamMode: "code", tooluse.ParamMessage: "wri"})
	use.Partial = true
	require.NoError(t, tooluse.Bind(New(modes.Default(), sp)).Handle(context.Background(), &testutil.FakeTask{}, use, cb))
	assert.Empty(t, sp.reqs)
	require.Len(t, cb.Echoes(), 1)
	assert.Equal(t, "code: wri", cb.Echoes()[0].Text)
}
