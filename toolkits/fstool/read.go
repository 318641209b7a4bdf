package fstool

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/skosovsky/tooluse"
)

// ReadFile is read_file. Typed: native calls arrive as ReadFileArgs with any number of
// files; streamed calls name one path with an optional start_line/end_line range.
type ReadFile struct{}

// NewReadFile creates the tool.
func NewReadFile() *ReadFile { return &ReadFile{} }

func (r *ReadFile) Name() tooluse.ToolName { return tooluse.ReadFile }

func (r *ReadFile) ParseLegacy(p tooluse.LegacyParams) (tooluse.ReadFileArgs, error) {
	path := strings.TrimSpace(p.Get(tooluse.ParamPath))
	if path == "" {
		return tooluse.ReadFileArgs{}, tooluse.Missing(tooluse.ReadFile, tooluse.ParamPath)
	}
	entry := tooluse.FileEntry{Path: path, LineRanges: []tooluse.LineRange{}}

	startRaw := strings.TrimSpace(p.Get(tooluse.ParamStartLine))
	endRaw := strings.TrimSpace(p.Get(tooluse.ParamEndLine))
	if startRaw != "" || endRaw != "" {
		lr := tooluse.LineRange{Start: 1}
		var err error
		if startRaw != "" {
			if lr.Start, err = strconv.Atoi(startRaw); err != nil {
				return tooluse.ReadFileArgs{}, &tooluse.ClientError{
					Reason: fmt.Sprintf("start_line must be a number, got %q", startRaw), Err: tooluse.ErrInvalidParams}
			}
		}
		if endRaw != "" {
			if lr.End, err = strconv.Atoi(endRaw); err != nil {
				return tooluse.ReadFileArgs{}, &tooluse.ClientError{
					Reason: fmt.Sprintf("end_line must be a number, got %q", endRaw), Err: tooluse.ErrInvalidParams}
			}
		}
		entry.LineRanges = append(entry.LineRanges, lr)
	}
	return tooluse.ReadFileArgs{Files: []tooluse.FileEntry{entry}}, nil
}

func (r *ReadFile) Execute(ctx context.Context, task tooluse.Task, args tooluse.ReadFileArgs, cb tooluse.Callbacks) error {
	if len(args.Files) == 0 {
		tooluse.RejectMissing(ctx, task, cb, tooluse.ReadFile, tooluse.ParamPath)
		return nil
	}

	paths := make([]string, 0, len(args.Files))
	for _, f := range args.Files {
		paths = append(paths, f.Path)
	}
	resp, err := cb.Ask(ctx, tooluse.AskRequest{Kind: tooluse.AskTool, Message: "Read " + strings.Join(paths, ", ")})
	if err != nil {
		return err
	}
	if !resp.Approved {
		cb.PushResult(ctx, tooluse.ToolResult{Content: tooluse.FormatDenied(resp.Text)})
		return nil
	}

	var b strings.Builder
	b.WriteString("<files>\n")
	failed := 0
	for _, f := range args.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !writeFile(&b, task.Workdir(), f) {
			failed++
		}
	}
	b.WriteString("</files>")

	if failed == len(args.Files) {
		task.RecordMistake(tooluse.ReadFile)
	} else {
		task.ResetMistakes()
	}
	cb.PushResult(ctx, tooluse.ToolResult{Content: b.String(), IsError: failed == len(args.Files)})
	return nil
}

// writeFile appends one <file> element and reports whether the file could be read.
func writeFile(b *strings.Builder, workdir string, f tooluse.FileEntry) bool {
	fmt.Fprintf(b, "<file><path>%s</path>\n", f.Path)
	defer b.WriteString("</file>\n")

	target, err := Resolve(workdir, f.Path)
	if err != nil {
		fmt.Fprintf(b, "<error>%v</error>\n", err)
		return false
	}
	data, err := os.ReadFile(target)
	if err != nil {
		fmt.Fprintf(b, "<error>Error reading file: %v</error>\n", err)
		return false
	}
	lines := splitLines(string(data))

	ranges := f.LineRanges
	if len(ranges) == 0 {
		ranges = []tooluse.LineRange{{Start: 1, End: len(lines)}}
	}
	for _, lr := range ranges {
		start, end := lr.Start, lr.End
		if end <= 0 || end > len(lines) {
			end = len(lines)
		}
		if start < 1 || (start > end && len(lines) > 0) {
			fmt.Fprintf(b, "<error>Invalid line range %d-%d (file has %d lines)</error>\n", lr.Start, lr.End, len(lines))
			return false
		}
		fmt.Fprintf(b, "<content lines=\"%d-%d\">\n", start, end)
		for i := start; i <= end && i <= len(lines); i++ {
			fmt.Fprintf(b, "%d | %s\n", i, lines[i-1])
		}
		b.WriteString("</content>\n")
	}
	return true
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

var _ tooluse.Tool[tooluse.ReadFileArgs] = (*ReadFile)(nil)
