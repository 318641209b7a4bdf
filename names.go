package tooluse

import "slices"

// ToolName identifies a tool. The set of valid names is closed: anything not listed
// below is not part of this protocol version and is rejected by the parsers.
type ToolName string

// Tool names.
const (
	ExecuteCommand          ToolName = "execute_command"
	ReadFile                ToolName = "read_file"
	FetchInstructions       ToolName = "fetch_instructions"
	WriteToFile             ToolName = "write_to_file"
	ApplyDiff               ToolName = "apply_diff"
	InsertContent           ToolName = "insert_content"
	SearchAndReplace        ToolName = "search_and_replace"
	SearchFiles             ToolName = "search_files"
	ListFiles               ToolName = "list_files"
	ListCodeDefinitionNames ToolName = "list_code_definition_names"
	BrowserAction           ToolName = "browser_action"
	UseMCPTool              ToolName = "use_mcp_tool"
	AccessMCPResource       ToolName = "access_mcp_resource"
	AskFollowupQuestion     ToolName = "ask_followup_question"
	AttemptCompletion       ToolName = "attempt_completion"
	SwitchMode              ToolName = "switch_mode"
	NewTask                 ToolName = "new_task"
	CodebaseSearch          ToolName = "codebase_search"
	UpdateTodoList          ToolName = "update_todo_list"
	RunSlashCommand         ToolName = "run_slash_command"
	GenerateImage           ToolName = "generate_image"
)

// ParamName identifies a tool parameter. Every tool draws its parameters from this one
// global set.
type ParamName string

// Parameter names.
const (
	ParamCommand     ParamName = "command"
	ParamPath        ParamName = "path"
	ParamContent     ParamName = "content"
	ParamLineCount   ParamName = "line_count"
	ParamRegex       ParamName = "regex"
	ParamFilePattern ParamName = "file_pattern"
	ParamRecursive   ParamName = "recursive"
	ParamAction      ParamName = "action"
	ParamURL         ParamName = "url"
	ParamCoordinate  ParamName = "coordinate"
	ParamText        ParamName = "text"
	ParamServerName  ParamName = "server_name"
	ParamToolName    ParamName = "tool_name"
	ParamArguments   ParamName = "arguments"
	ParamURI         ParamName = "uri"
	ParamQuestion    ParamName = "question"
	ParamResult      ParamName = "result"
	ParamDiff        ParamName = "diff"
	ParamModeSlug    ParamName = "mode_slug"
	ParamReason      ParamName = "reason"
	ParamLine        ParamName = "line"
	ParamMode        ParamName = "mode"
	ParamMessage     ParamName = "message"
	ParamCwd         ParamName = "cwd"
	ParamFollowUp    ParamName = "follow_up"
	ParamTask        ParamName = "task"
	ParamSize        ParamName = "size"
	ParamSearch      ParamName = "search"
	ParamReplace     ParamName = "replace"
	ParamUseRegex    ParamName = "use_regex"
	ParamIgnoreCase  ParamName = "ignore_case"
	ParamArgs        ParamName = "args"
	ParamStartLine   ParamName = "start_line"
	ParamEndLine     ParamName = "end_line"
	ParamQuery       ParamName = "query"
	ParamTodos       ParamName = "todos"
	ParamPrompt      ParamName = "prompt"
	ParamImage       ParamName = "image"
	ParamFiles       ParamName = "files"
)

var toolNames = map[ToolName]struct{}{
	ExecuteCommand: {}, ReadFile: {}, FetchInstructions: {}, WriteToFile: {}, ApplyDiff: {},
	InsertContent: {}, SearchAndReplace: {}, SearchFiles: {}, ListFiles: {},
	ListCodeDefinitionNames: {}, BrowserAction: {}, UseMCPTool: {}, AccessMCPResource: {},
	AskFollowupQuestion: {}, AttemptCompletion: {}, SwitchMode: {}, NewTask: {},
	CodebaseSearch: {}, UpdateTodoList: {}, RunSlashCommand: {}, GenerateImage: {},
}

var paramNames = map[ParamName]struct{}{
	ParamCommand: {}, ParamPath: {}, ParamContent: {}, ParamLineCount: {}, ParamRegex: {},
	ParamFilePattern: {}, ParamRecursive: {}, ParamAction: {}, ParamURL: {}, ParamCoordinate: {},
	ParamText: {}, ParamServerName: {}, ParamToolName: {}, ParamArguments: {}, ParamURI: {},
	ParamQuestion: {}, ParamResult: {}, ParamDiff: {}, ParamModeSlug: {}, ParamReason: {},
	ParamLine: {}, ParamMode: {}, ParamMessage: {}, ParamCwd: {}, ParamFollowUp: {},
	ParamTask: {}, ParamSize: {}, ParamSearch: {}, ParamReplace: {}, ParamUseRegex: {},
	ParamIgnoreCase: {}, ParamArgs: {}, ParamStartLine: {}, ParamEndLine: {}, ParamQuery: {},
	ParamTodos: {}, ParamPrompt: {}, ParamImage: {}, ParamFiles: {},
}

// IsToolName reports whether s is a member of the closed tool name set.
func IsToolName(s string) bool {
	_, ok := toolNames[ToolName(s)]
	return ok
}

// IsParamName reports whether s is a member of the closed parameter name set.
func IsParamName(s string) bool {
	_, ok := paramNames[ParamName(s)]
	return ok
}

// ToolNames returns all tool names, sorted.
func ToolNames() []ToolName {
	out := make([]ToolName, 0, len(toolNames))
	for n := range toolNames {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// ParamNames returns all parameter names, sorted.
func ParamNames() []ParamName {
	out := make([]ParamName, 0, len(paramNames))
	for n := range paramNames {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
