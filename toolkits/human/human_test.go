package human

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/testutil"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []tooluse.Suggestion
	}{
		{name: "blank", in: "  ", want: nil},
		{name: "json strings", in: `["yes","no"]`, want: []tooluse.Suggestion{{Text: "yes"}, {Text: "no"}}},
		{name: "json objects", in: `[{"text":"switch","mode":"code"},"stay"]`,
			want: []tooluse.Suggestion{{Text: "switch", Mode: "code"}, {Text: "stay"}}},
		{name: "tags", in: "<suggest>src/</suggest>\n<suggest mode=\"debug\">\n  tests/\n</suggest>",
			want: []tooluse.Suggestion{{Text: "src/"}, {Text: "tests/", Mode: "debug"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestions(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSuggestions("[broken")
	require.Error(t, err)
	_, err = ParseSuggestions("just words")
	require.Error(t, err)
}

func TestParseLegacy(t *testing.T) {
	_, err := New().ParseLegacy(tooluse.LegacyParams{tooluse.ParamFollowUp: `["a"]`})
	var mp *tooluse.MissingParamError
	require.ErrorAs(t, err, &mp)

	_, err = New().ParseLegacy(tooluse.LegacyParams{tooluse.ParamQuestion: "Which?", tooluse.ParamFollowUp: "nope"})
	require.Error(t, err)
	assert.True(t, tooluse.IsClientError(err))
	assert.ErrorIs(t, err, tooluse.ErrInvalidParams)
}

func TestExecute_NativeCall(t *testing.T) {
	parser := tooluse.NewNativeParser()
	use, err := parser.Parse(tooluse.NativeCall{
		ID:        "q1",
		Name:      "ask_followup_question",
		Arguments: `{"question":"Which directory?","follow_up":[{"text":"src"},{"text":"lib","mode":"code"}]}`,
	})
	require.NoError(t, err)
	require.NotNil(t, use.NativeArgs)

	cb := &testutil.RecordingCallbacks{AskFn: func(_ context.Context, req tooluse.AskRequest) (tooluse.AskResponse, error) {
		return tooluse.AskResponse{Text: "src"}, nil
	}}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), &testutil.FakeTask{}, use, cb))

	asks := cb.Asks()
	require.Len(t, asks, 1)
	assert.Equal(t, tooluse.AskFollowup, asks[0].Kind)
	assert.Equal(t, "Which directory?\n- src\n- lib (mode: code)", asks[0].Message)
	assert.Equal(t, "<answer>\nsrc\n</answer>", cb.LastResult().Content)
	assert.Equal(t, "q1", cb.LastResult().CallID)
}

func TestExecute_LegacyTags(t *testing.T) {
	cb := &testutil.RecordingCallbacks{}
	use := &tooluse.ToolUse{ID: "q1", Name: tooluse.AskFollowupQuestion, Params: tooluse.LegacyParams{
		tooluse.ParamQuestion: "Proceed?",
		tooluse.ParamFollowUp: "<suggest>Yes</suggest><suggest>No</suggest>",
	}}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), &testutil.FakeTask{}, use, cb))
	assert.Equal(t, "Proceed?\n- Yes\n- No", cb.Asks()[0].Message)
}

func TestHandlePartial(t *testing.T) {
	cb := &testutil.RecordingCallbacks{}
	use := &tooluse.ToolUse{ID: "q1", Name: tooluse.AskFollowupQuestion,
		Params: tooluse.LegacyParams{tooluse.ParamQuestion: "Whi"}, Partial: true}
	require.NoError(t, tooluse.Bind(New()).Handle(context.Background(), &testutil.FakeTask{}, use, cb))
	assert.Empty(t, cb.Asks())
	require.Len(t, cb.Echoes(), 1)
	assert.Equal(t, "Whi", cb.Echoes()[0].Text)
}
