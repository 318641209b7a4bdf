package fstool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/skosovsky/tooluse"
)

// DefaultLimit caps list_files results.
const DefaultLimit = 200

// ErrNotDir is returned by List when the path is a file.
var ErrNotDir = errors.New("not a directory")

// skipDirs are not descended into by recursive listings.
var skipDirs = map[string]struct{}{".git": {}, "node_modules": {}, "vendor": {}, "__pycache__": {}}

// ListParams are the resolved list_files parameters.
type ListParams struct {
	Path      string
	Recursive bool
}

// Listing is the result of one listing. Entries are relative to the listed directory;
// directories end with a slash.
type Listing struct {
	Entries  []string
	HitLimit bool
}

// ListFiles is list_files. It has no native args.
type ListFiles struct {
	limit  int
	logger *slog.Logger
}

// ListOption configures ListFiles.
type ListOption func(*ListFiles)

// WithLimit sets the maximum number of entries returned. Non-positive values keep the
// default.
func WithLimit(n int) ListOption {
	return func(l *ListFiles) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithListLogger sets the logger.
func WithListLogger(logger *slog.Logger) ListOption {
	return func(l *ListFiles) {
		l.logger = logger
	}
}

// NewListFiles creates the tool.
func NewListFiles(opts ...ListOption) *ListFiles {
	l := &ListFiles{limit: DefaultLimit}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	return l
}

func (l *ListFiles) Name() tooluse.ToolName { return tooluse.ListFiles }

func (l *ListFiles) ParseLegacy(p tooluse.LegacyParams) (ListParams, error) {
	path := strings.TrimSpace(p.Get(tooluse.ParamPath))
	if path == "" {
		return ListParams{}, tooluse.Missing(tooluse.ListFiles, tooluse.ParamPath)
	}
	return ListParams{
		Path:      path,
		Recursive: strings.EqualFold(strings.TrimSpace(p.Get(tooluse.ParamRecursive)), "true"),
	}, nil
}

func (l *ListFiles) Execute(ctx context.Context, task tooluse.Task, p ListParams, cb tooluse.Callbacks) error {
	dir, err := Resolve(task.Workdir(), p.Path)
	if err != nil {
		tooluse.Reject(ctx, task, cb, tooluse.ListFiles, err.Error())
		return nil
	}
	shown := display(task.Workdir(), dir)

	listing, err := List(ctx, dir, p.Recursive, l.limit)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		tooluse.Reject(ctx, task, cb, tooluse.ListFiles, fmt.Sprintf("Directory not found: %s", shown))
		return nil
	case errors.Is(err, ErrNotDir):
		tooluse.Reject(ctx, task, cb, tooluse.ListFiles, fmt.Sprintf("Not a directory: %s", shown))
		return nil
	case err != nil:
		return fmt.Errorf("list %s: %w", shown, err)
	}
	task.ResetMistakes()

	body := Format(listing)
	what := "top level"
	if p.Recursive {
		what = "recursively"
	}
	resp, err := cb.Ask(ctx, tooluse.AskRequest{
		Kind:    tooluse.AskTool,
		Message: fmt.Sprintf("List files %s in %s:\n%s", what, shown, body),
	})
	if err != nil {
		return err
	}
	if !resp.Approved {
		cb.PushResult(ctx, tooluse.ToolResult{Content: tooluse.FormatDenied(resp.Text)})
		return nil
	}
	l.logger.Debug("listed files", "path", shown, "entries", len(listing.Entries), "hit_limit", listing.HitLimit)
	cb.PushResult(ctx, tooluse.ToolResult{Content: body})
	return nil
}

func (l *ListFiles) HandlePartial(ctx context.Context, _ tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	cb.Echo(ctx, tooluse.Update{Kind: string(tooluse.ListFiles), Text: use.Params.Get(tooluse.ParamPath), Partial: true})
	return nil
}

// List returns up to limit entries of dir, sorted. HitLimit reports that more entries
// exist. A limit of zero or less means DefaultLimit.
func List(ctx context.Context, dir string, recursive bool, limit int) (Listing, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Listing{}, err
	}
	if !info.IsDir() {
		return Listing{}, fmt.Errorf("%w: %s", ErrNotDir, dir)
	}

	var out Listing
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return Listing{}, err
		}
		for _, e := range entries {
			if len(out.Entries) == limit {
				out.HitLimit = true
				break
			}
			out.Entries = append(out.Entries, entryName(e.Name(), e.IsDir()))
		}
		return out, nil
	}

	errLimit := errors.New("limit reached")
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
		}
		if len(out.Entries) == limit {
			out.HitLimit = true
			return errLimit
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out.Entries = append(out.Entries, entryName(filepath.ToSlash(rel), d.IsDir()))
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return Listing{}, err
	}
	slices.Sort(out.Entries)
	return out, nil
}

func entryName(name string, dir bool) string {
	if dir {
		return name + "/"
	}
	return name
}

// Format renders a listing the way list_files reports it to the model.
func Format(l Listing) string {
	if len(l.Entries) == 0 {
		return "No files found."
	}
	s := strings.Join(l.Entries, "\n")
	if l.HitLimit {
		s += "\n\n(File list truncated. Use list_files on specific subdirectories if you need to explore further.)"
	}
	return s
}

var (
	_ tooluse.Tool[ListParams] = (*ListFiles)(nil)
	_ tooluse.PartialHandler   = (*ListFiles)(nil)
)
