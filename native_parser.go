package tooluse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ParseStatus is the outcome class of one native parse.
type ParseStatus string

// Parse statuses.
const (
	ParseOK          ParseStatus = "ok"
	ParseUnknownTool ParseStatus = "unknown_tool"
	ParseMalformed   ParseStatus = "malformed_arguments"
)

// ParseOutcome describes what the native parser did with a call. It is passed to the
// WithOnParse hook.
type ParseOutcome struct {
	Status ParseStatus
	// Typed is true when native args were built.
	Typed bool
	// Dropped lists argument keys outside the parameter name set, sorted.
	Dropped []string
}

// NativeParser converts structured function calls into ToolUse values.
// It is safe for concurrent use.
type NativeParser struct {
	logger  *slog.Logger
	onParse func(NativeCall, ParseOutcome)
}

// NewNativeParser creates a parser with the given options.
func NewNativeParser(opts ...ParserOption) *NativeParser {
	o := parserOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &NativeParser{logger: o.logger, onParse: o.onParse}
}

// Parse turns call into a complete ToolUse. On an unknown tool name or arguments that do
// not decode as a JSON object it returns nil and a ClientError; such a call must be
// skipped, not executed. Unknown argument keys are dropped with a warning.
// The returned ToolUse is never partial.
func (p *NativeParser) Parse(call NativeCall) (use *ToolUse, err error) {
	outcome := ParseOutcome{Status: ParseOK}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("native parse panic", "tool", call.Name, "call_id", call.ID, "panic", fmt.Sprint(r))
			use = nil
			outcome = ParseOutcome{Status: ParseMalformed}
			err = &ClientError{Reason: "could not parse arguments", Err: ErrMalformedArguments}
		}
		if p.onParse != nil {
			p.onParse(call, outcome)
		}
	}()

	if !IsToolName(call.Name) {
		p.logger.Warn("unknown tool in native call", "tool", call.Name, "call_id", call.ID)
		outcome.Status = ParseUnknownTool
		return nil, &ClientError{Reason: fmt.Sprintf("unknown tool %q", call.Name), Err: ErrUnknownTool}
	}
	name := ToolName(call.Name)

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		p.logger.Warn("malformed native arguments", "tool", name, "call_id", call.ID, "error", err)
		outcome.Status = ParseMalformed
		return nil, &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrMalformedArguments}
	}

	params := make(LegacyParams, len(args))
	for key, val := range args {
		if !IsParamName(key) {
			outcome.Dropped = append(outcome.Dropped, key)
			continue
		}
		param := ParamName(key)
		if val == nil || isBulkParam(name, param) {
			continue
		}
		s, err := legacyString(val)
		if err != nil {
			p.logger.Warn("dropping unencodable argument", "tool", name, "param", key, "error", err)
			continue
		}
		params[param] = s
	}
	if len(outcome.Dropped) > 0 {
		slices.Sort(outcome.Dropped)
		p.logger.Warn("dropping unknown parameters", "tool", name, "call_id", call.ID, "params", outcome.Dropped)
	}

	native, err := buildNativeArgs(name, args)
	if err != nil && carriesBulkPayload(name, args) {
		// The payload has no legacy view to fall back to.
		p.logger.Warn("malformed bulk payload", "tool", name, "call_id", call.ID, "error", err)
		outcome.Status = ParseMalformed
		return nil, &ClientError{
			Reason: fmt.Sprintf(`%s must be a list of {"path", "line_ranges": [[start, end], ...]} objects (%v)`, ParamFiles, err),
			Err:    fmt.Errorf("%w: %w", ErrMalformedArguments, err),
		}
	}
	if err != nil {
		p.logger.Warn("native args conversion failed, falling back to legacy params",
			"tool", name, "call_id", call.ID, "error", err)
		native = nil
	}
	outcome.Typed = native != nil

	return &ToolUse{
		ID:         call.ID,
		Name:       name,
		Params:     params,
		NativeArgs: native,
		Partial:    false,
	}, nil
}

func decodeArguments(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after arguments object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object, got %T", v)
	}
	return obj, nil
}

// isBulkParam reports payloads carried only through native args.
func isBulkParam(name ToolName, param ParamName) bool {
	return name == ReadFile && param == ParamFiles
}

// carriesBulkPayload reports whether args hold a payload that is only carried through
// native args.
func carriesBulkPayload(name ToolName, args map[string]any) bool {
	raw, ok := args[string(ParamFiles)]
	return ok && raw != nil && isBulkParam(name, ParamFiles)
}

// legacyString passes strings through and renders anything else as compact JSON.
func legacyString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// buildNativeArgs applies the fixed per-tool conversion. It returns nil, nil for tools
// without a native shape and for calls missing a required key, so dispatch falls back
// to ParseLegacy.
func buildNativeArgs(name ToolName, args map[string]any) (NativeArgs, error) {
	switch name {
	case ReadFile:
		return buildReadFileArgs(args)
	case AttemptCompletion:
		return decodeRequired[AttemptCompletionArgs](args, "result")
	case ExecuteCommand:
		return decodeRequired[ExecuteCommandArgs](args, "command")
	case ApplyDiff:
		return decodeRequired[ApplyDiffArgs](args, "path", "diff")
	case AskFollowupQuestion:
		return decodeRequired[AskFollowupQuestionArgs](args, "question", "follow_up")
	case BrowserAction:
		return buildBrowserActionArgs(args)
	case CodebaseSearch:
		return decodeRequired[CodebaseSearchArgs](args, "query")
	case FetchInstructions:
		return decodeRequired[FetchInstructionsArgs](args, "task")
	case InsertContent:
		return decodeRequired[InsertContentArgs](args, "path", "line", "content")
	case SwitchMode:
		return decodeRequired[SwitchModeArgs](args, "mode_slug")
	case SearchFiles:
		return decodeRequired[SearchFilesArgs](args, "path", "regex")
	default:
		return nil, nil
	}
}

func decodeRequired[T NativeArgs](args map[string]any, required ...string) (NativeArgs, error) {
	for _, key := range required {
		if v, ok := args[key]; !ok || v == nil {
			return nil, nil
		}
	}
	var out T
	if err := weakDecode(args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// buildBrowserActionArgs passes the optional context fields through as legacy strings
// once action is present, whatever their JSON type.
func buildBrowserActionArgs(args map[string]any) (NativeArgs, error) {
	if v, ok := args["action"]; !ok || v == nil {
		return nil, nil
	}
	var out BrowserActionArgs
	fields := []struct {
		key string
		dst *string
	}{
		{"action", &out.Action},
		{"url", &out.URL},
		{"coordinate", &out.Coordinate},
		{"size", &out.Size},
		{"text", &out.Text},
	}
	for _, f := range fields {
		v, ok := args[f.key]
		if !ok || v == nil {
			continue
		}
		s, err := legacyString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = s
	}
	return out, nil
}

// weakDecode decodes src into dst, coercing numeric strings to numbers. Values bound for
// string fields are rendered by legacyString.
func weakDecode(src any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(legacyStringHook),
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

// legacyStringHook makes string fields of native args match the legacy view: a JSON true
// becomes "true" rather than mapstructure's "1".
func legacyStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() == reflect.String {
		return data, nil
	}
	return legacyString(data)
}

type rawFileEntry struct {
	Path       string  `mapstructure:"path"`
	LineRanges [][]int `mapstructure:"line_ranges"`
}

// buildReadFileArgs accepts {"files":[...]} or the single-file convenience {"path": "..."}.
func buildReadFileArgs(args map[string]any) (NativeArgs, error) {
	if raw, ok := args["files"]; ok && raw != nil {
		var entries []rawFileEntry
		if err := weakDecode(raw, &entries); err != nil {
			return nil, fmt.Errorf("files: %w", err)
		}
		files := make([]FileEntry, 0, len(entries))
		for i, e := range entries {
			ranges := make([]LineRange, 0, len(e.LineRanges))
			for _, r := range e.LineRanges {
				if len(r) != 2 {
					return nil, fmt.Errorf("files[%d]: line range must have 2 elements, got %d", i, len(r))
				}
				ranges = append(ranges, LineRange{Start: r[0], End: r[1]})
			}
			files = append(files, FileEntry{Path: e.Path, LineRanges: ranges})
		}
		return ReadFileArgs{Files: files}, nil
	}
	if raw, ok := args["path"]; ok && raw != nil {
		var path string
		if err := weakDecode(raw, &path); err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		return ReadFileArgs{Files: []FileEntry{{Path: path, LineRanges: []LineRange{}}}}, nil
	}
	return nil, nil
}
