package tooluse

// NativeArgs is the strongly-typed argument shape of a migrated tool. It is a closed sum
// type: the variants below are the only implementations, one per typed tool name.
// Code that needs the shape of a given tool switches on the concrete type.
type NativeArgs interface {
	ToolName() ToolName
	nativeArgs()
}

// LineRange is an inclusive 1-based line range.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FileEntry is one file of a read_file call. Empty LineRanges means the whole file.
type FileEntry struct {
	Path       string      `json:"path"`
	LineRanges []LineRange `json:"line_ranges"`
}

// ReadFileArgs carries the files to read.
type ReadFileArgs struct {
	Files []FileEntry `json:"files"`
}

// AttemptCompletionArgs carries the final result of a task.
type AttemptCompletionArgs struct {
	Result string `json:"result" mapstructure:"result"`
}

// ExecuteCommandArgs carries a shell command and an optional working directory.
type ExecuteCommandArgs struct {
	Command string `json:"command" mapstructure:"command"`
	Cwd     string `json:"cwd,omitempty" mapstructure:"cwd"`
}

// ApplyDiffArgs carries a diff against one file.
type ApplyDiffArgs struct {
	Path string `json:"path" mapstructure:"path"`
	Diff string `json:"diff" mapstructure:"diff"`
}

// Suggestion is one suggested answer to a follow-up question. Mode optionally switches
// the task mode when picked.
type Suggestion struct {
	Text string `json:"text" mapstructure:"text"`
	Mode string `json:"mode,omitempty" mapstructure:"mode"`
}

// AskFollowupQuestionArgs carries a question and its suggested answers.
type AskFollowupQuestionArgs struct {
	Question string       `json:"question" mapstructure:"question"`
	FollowUp []Suggestion `json:"follow_up" mapstructure:"follow_up"`
}

// BrowserActionArgs carries a browser action and its optional context fields.
type BrowserActionArgs struct {
	Action     string `json:"action" mapstructure:"action"`
	URL        string `json:"url,omitempty" mapstructure:"url"`
	Coordinate string `json:"coordinate,omitempty" mapstructure:"coordinate"`
	Size       string `json:"size,omitempty" mapstructure:"size"`
	Text       string `json:"text,omitempty" mapstructure:"text"`
}

// CodebaseSearchArgs carries a semantic search query.
type CodebaseSearchArgs struct {
	Query string `json:"query" mapstructure:"query"`
	Path  string `json:"path,omitempty" mapstructure:"path"`
}

// FetchInstructionsArgs names the instruction set to fetch.
type FetchInstructionsArgs struct {
	Task string `json:"task" mapstructure:"task"`
}

// InsertContentArgs inserts Content before Line (0 appends).
type InsertContentArgs struct {
	Path    string `json:"path" mapstructure:"path"`
	Line    int    `json:"line" mapstructure:"line"`
	Content string `json:"content" mapstructure:"content"`
}

// SwitchModeArgs requests a mode switch.
type SwitchModeArgs struct {
	ModeSlug string `json:"mode_slug" mapstructure:"mode_slug"`
	Reason   string `json:"reason,omitempty" mapstructure:"reason"`
}

// SearchFilesArgs carries a regex search below Path.
type SearchFilesArgs struct {
	Path        string `json:"path" mapstructure:"path"`
	Regex       string `json:"regex" mapstructure:"regex"`
	FilePattern string `json:"file_pattern,omitempty" mapstructure:"file_pattern"`
}

func (ReadFileArgs) ToolName() ToolName            { return ReadFile }
func (AttemptCompletionArgs) ToolName() ToolName   { return AttemptCompletion }
func (ExecuteCommandArgs) ToolName() ToolName      { return ExecuteCommand }
func (ApplyDiffArgs) ToolName() ToolName           { return ApplyDiff }
func (AskFollowupQuestionArgs) ToolName() ToolName { return AskFollowupQuestion }
func (BrowserActionArgs) ToolName() ToolName       { return BrowserAction }
func (CodebaseSearchArgs) ToolName() ToolName      { return CodebaseSearch }
func (FetchInstructionsArgs) ToolName() ToolName   { return FetchInstructions }
func (InsertContentArgs) ToolName() ToolName       { return InsertContent }
func (SwitchModeArgs) ToolName() ToolName          { return SwitchMode }
func (SearchFilesArgs) ToolName() ToolName         { return SearchFiles }

func (ReadFileArgs) nativeArgs()            {}
func (AttemptCompletionArgs) nativeArgs()   {}
func (ExecuteCommandArgs) nativeArgs()      {}
func (ApplyDiffArgs) nativeArgs()           {}
func (AskFollowupQuestionArgs) nativeArgs() {}
func (BrowserActionArgs) nativeArgs()       {}
func (CodebaseSearchArgs) nativeArgs()      {}
func (FetchInstructionsArgs) nativeArgs()   {}
func (InsertContentArgs) nativeArgs()       {}
func (SwitchModeArgs) nativeArgs()          {}
func (SearchFilesArgs) nativeArgs()         {}

// TypedTools returns the tool names that have a native argument shape, sorted.
// Every other tool is driven through ParseLegacy even on the native protocol.
func TypedTools() []ToolName {
	return []ToolName{
		ApplyDiff, AskFollowupQuestion, AttemptCompletion, BrowserAction, CodebaseSearch,
		ExecuteCommand, FetchInstructions, InsertContent, ReadFile, SearchFiles, SwitchMode,
	}
}

// IsTyped reports whether name has a native argument shape.
func IsTyped(name ToolName) bool {
	switch name {
	case ApplyDiff, AskFollowupQuestion, AttemptCompletion, BrowserAction, CodebaseSearch,
		ExecuteCommand, FetchInstructions, InsertContent, ReadFile, SearchFiles, SwitchMode:
		return true
	}
	return false
}

var (
	_ NativeArgs = ReadFileArgs{}
	_ NativeArgs = AttemptCompletionArgs{}
	_ NativeArgs = ExecuteCommandArgs{}
	_ NativeArgs = ApplyDiffArgs{}
	_ NativeArgs = AskFollowupQuestionArgs{}
	_ NativeArgs = BrowserActionArgs{}
	_ NativeArgs = CodebaseSearchArgs{}
	_ NativeArgs = FetchInstructionsArgs{}
	_ NativeArgs = InsertContentArgs{}
	_ NativeArgs = SwitchModeArgs{}
	_ NativeArgs = SearchFilesArgs{}
)
