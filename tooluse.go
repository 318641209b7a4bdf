package tooluse

import (
	"context"
	"maps"
)

// NativeCall is a structured function call as delivered whole by the model provider.
// Arguments is the raw JSON object text.
type NativeCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// LegacyParams maps parameter names to their legacy string form.
type LegacyParams map[ParamName]string

// Get returns the value of p, or "" when absent.
func (p LegacyParams) Get(name ParamName) string { return p[name] }

// Has reports whether p carries name (possibly with an empty value).
func (p LegacyParams) Has(name ParamName) bool {
	_, ok := p[name]
	return ok
}

// ToolUse is the protocol-agnostic invocation handed to dispatch. Both the native parser
// and the legacy stream scanner produce it.
//
// NativeArgs, when set, is derived from the same source arguments as Params; the two are
// views of one call. Params never carries a typed tool's bulk payload (read_file files).
// A native ToolUse is never Partial. A streamed one may be seen several times with
// Partial set before a final complete snapshot.
type ToolUse struct {
	ID         string
	Name       ToolName
	Params     LegacyParams
	NativeArgs NativeArgs
	Partial    bool
}

// Clone returns a copy whose Params map is not shared with u.
func (u *ToolUse) Clone() *ToolUse {
	if u == nil {
		return nil
	}
	c := *u
	c.Params = maps.Clone(u.Params)
	if c.Params == nil {
		c.Params = LegacyParams{}
	}
	return &c
}

// ToolResult is what a tool hands back to the conversation for one call.
type ToolResult struct {
	CallID  string
	Tool    ToolName
	Content string
	IsError bool
}

// AskKind classifies an approval or question request sent to the host.
type AskKind string

// Ask kinds.
const (
	AskTool             AskKind = "tool"
	AskFollowup         AskKind = "followup"
	AskCompletionResult AskKind = "completion_result"
	AskFinishSubtask    AskKind = "finish_subtask"
)

// AskRequest asks the host for approval or an answer.
type AskRequest struct {
	CallID  string
	Tool    ToolName
	Kind    AskKind
	Message string
}

// AskResponse is the host's reply. Text carries free-form feedback or an answer.
type AskResponse struct {
	Approved bool
	Text     string
}

// Update is a UI echo. Partial updates are produced while a call is still streaming.
type Update struct {
	CallID  string
	Tool    ToolName
	Kind    string
	Text    string
	Partial bool
}

// Callbacks is the hosting environment as seen by tools. Implementations are provided
// by the host; this package only invokes them.
type Callbacks interface {
	// Ask blocks until the host answers or ctx is done.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	HandleError(ctx context.Context, action string, err error)
	PushResult(ctx context.Context, res ToolResult)
	// Echo must not block on user input.
	Echo(ctx context.Context, u Update)
}

// Task is the state of the agent task a call belongs to.
type Task interface {
	ID() string
	Workdir() string
	// RecordMistake bumps the consecutive mistake counter used for loop detection.
	RecordMistake(name ToolName)
	ResetMistakes()
}
