// Package tooluse turns a language model's tool calls into safely executed actions.
//
// # Overview
//
// A model requests a tool in one of two wire formats: a native function call (id, name,
// JSON arguments) delivered whole, or an inline tag-delimited block streamed inside its
// text (see package legacy). Both converge on ToolUse, the protocol-agnostic invocation
// that dispatch consumes.
//
// Pipeline: NativeCall → NativeParser.Parse → ToolUse → Driver → Registry.Dispatch →
// Handler (Bind(Tool[P])) → HandlePartial | (NativeArgs or ParseLegacy) → Execute.
//
// # Key concepts
//
//   - Closed names: ToolName and ParamName are fixed sets. Unknown tools are rejected,
//     unknown parameters are dropped with a warning.
//   - Two views of one call: LegacyParams holds every recognized argument as a string;
//     NativeArgs holds the typed shape for migrated tools and takes precedence.
//   - Partial snapshots: streamed invocations are echoed to the UI through HandlePartial
//     and never executed until complete.
//   - Self-correction: ClientError and missing-parameter errors are pushed back to the
//     model as error results; SystemError hides internals.
//
// # Example
//
//	type listParams struct{ Path string }
//	tool, err := tooluse.NewTool(tooluse.ListFiles,
//	    func(p tooluse.LegacyParams) (listParams, error) {
//	        if p.Get(tooluse.ParamPath) == "" {
//	            return listParams{}, tooluse.Missing(tooluse.ListFiles, tooluse.ParamPath)
//	        }
//	        return listParams{Path: p.Get(tooluse.ParamPath)}, nil
//	    },
//	    func(ctx context.Context, task tooluse.Task, p listParams, cb tooluse.Callbacks) error {
//	        cb.PushResult(ctx, tooluse.ToolResult{Tool: tooluse.ListFiles, Content: p.Path})
//	        return nil
//	    })
//	if err != nil { ... }
//	reg := tooluse.NewRegistry()
//	reg.Register(tooluse.Bind(tool))
//	d := tooluse.NewDriver(reg, task, host)
//	err = d.HandleNative(ctx, tooluse.NativeCall{ID: "1", Name: "list_files", Arguments: `{"path":"."}`})
package tooluse
