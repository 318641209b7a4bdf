// Package todo parses the markdown checklists a model hands to sub-tasks and completion
// gates.
//
//	[ ] write tests
//	[-] refactor parser
//	[x] read the docs
package todo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Status is the state of one checklist item.
type Status string

// Statuses.
const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

// Item is one checklist entry. ID is derived from content and status so the same list
// parses to the same IDs.
type Item struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
	Status  Status `json:"status" yaml:"status"`
}

// ErrFormat is returned for text that is not a checklist.
var ErrFormat = errors.New("invalid checklist format")

var itemLine = regexp.MustCompile(`^(?:[-*]\s*)?\[\s*([ xX\-~])\s*\]\s+(.+)$`)

// Parse reads one item per non-blank line. Any other non-blank line, or input without
// items, is an ErrFormat error.
func Parse(text string) ([]Item, error) {
	var items []Item
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := itemLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrFormat, i+1, line)
		}
		status := Pending
		switch m[1] {
		case "x", "X":
			status = Completed
		case "-", "~":
			status = InProgress
		}
		content := strings.TrimSpace(m[2])
		items = append(items, Item{ID: itemID(content, status), Content: content, Status: status})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no checklist items", ErrFormat)
	}
	return items, nil
}

// Open returns the items that are not completed.
func Open(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Status != Completed {
			out = append(out, it)
		}
	}
	return out
}

// Format renders items back to checklist text.
func Format(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		mark := " "
		switch it.Status {
		case Completed:
			mark = "x"
		case InProgress:
			mark = "-"
		}
		fmt.Fprintf(&b, "[%s] %s\n", mark, it.Content)
	}
	return b.String()
}

func itemID(content string, status Status) string {
	sum := sha256.Sum256([]byte(content + "\x00" + string(status)))
	return hex.EncodeToString(sum[:8])
}
