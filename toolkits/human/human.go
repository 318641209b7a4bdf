// Package human implements ask_followup_question.
package human

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/skosovsky/tooluse"
)

var suggestTag = regexp.MustCompile(`(?s)<suggest(?:\s+mode="([^"]*)")?\s*>(.*?)</suggest>`)

// Tool is ask_followup_question. Typed: native calls with both question and follow_up
// arrive as AskFollowupQuestionArgs.
type Tool struct{}

// New creates the tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() tooluse.ToolName { return tooluse.AskFollowupQuestion }

func (t *Tool) ParseLegacy(p tooluse.LegacyParams) (tooluse.AskFollowupQuestionArgs, error) {
	question := strings.TrimSpace(p.Get(tooluse.ParamQuestion))
	if question == "" {
		return tooluse.AskFollowupQuestionArgs{}, tooluse.Missing(tooluse.AskFollowupQuestion, tooluse.ParamQuestion)
	}
	suggestions, err := ParseSuggestions(p.Get(tooluse.ParamFollowUp))
	if err != nil {
		return tooluse.AskFollowupQuestionArgs{}, &tooluse.ClientError{
			Reason: "follow_up must be a list of suggestions or <suggest> tags: " + err.Error(),
			Err:    fmt.Errorf("%w: %w", tooluse.ErrInvalidParams, err),
		}
	}
	return tooluse.AskFollowupQuestionArgs{Question: question, FollowUp: suggestions}, nil
}

// ParseSuggestions reads follow_up in either of its string forms: a JSON list whose
// items are strings or {"text", "mode"} objects, or a run of <suggest> tags. Blank input
// has no suggestions.
func ParseSuggestions(raw string) ([]tooluse.Suggestion, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, err
		}
		out := make([]tooluse.Suggestion, 0, len(items))
		for i, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, tooluse.Suggestion{Text: s})
				continue
			}
			var sg tooluse.Suggestion
			if err := mapstructure.WeakDecode(item, &sg); err != nil {
				return nil, fmt.Errorf("follow_up[%d]: %w", i, err)
			}
			out = append(out, sg)
		}
		return out, nil
	}
	matches := suggestTag.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no <suggest> tags in %q", raw)
	}
	out := make([]tooluse.Suggestion, 0, len(matches))
	for _, m := range matches {
		out = append(out, tooluse.Suggestion{Text: strings.TrimSpace(m[2]), Mode: m[1]})
	}
	return out, nil
}

func (t *Tool) Execute(ctx context.Context, task tooluse.Task, args tooluse.AskFollowupQuestionArgs, cb tooluse.Callbacks) error {
	if strings.TrimSpace(args.Question) == "" {
		tooluse.RejectMissing(ctx, task, cb, tooluse.AskFollowupQuestion, tooluse.ParamQuestion)
		return nil
	}
	task.ResetMistakes()

	msg := args.Question
	for _, s := range args.FollowUp {
		msg += "\n- " + s.Text
		if s.Mode != "" {
			msg += " (mode: " + s.Mode + ")"
		}
	}
	resp, err := cb.Ask(ctx, tooluse.AskRequest{Kind: tooluse.AskFollowup, Message: msg})
	if err != nil {
		return err
	}
	cb.PushResult(ctx, tooluse.ToolResult{Content: "<answer>\n" + resp.Text + "\n</answer>"})
	return nil
}

func (t *Tool) HandlePartial(ctx context.Context, _ tooluse.Task, use *tooluse.ToolUse, cb tooluse.Callbacks) error {
	cb.Echo(ctx, tooluse.Update{
		Kind:    string(tooluse.AskFollowup),
		Text:    use.Params.Get(tooluse.ParamQuestion),
		Partial: true,
	})
	return nil
}

var (
	_ tooluse.Tool[tooluse.AskFollowupQuestionArgs] = (*Tool)(nil)
	_ tooluse.PartialHandler                        = (*Tool)(nil)
)
