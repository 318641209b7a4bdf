// Package legacy scans the inline tag-delimited tool format out of streamed model text:
//
//	I will look around first.
//	<list_files>
//	<path>src</path>
//	<recursive>true</recursive>
//	</list_files>
//
// Tags outside the closed tool and parameter name sets are plain text. The output is
// the same tooluse.ToolUse the native parser produces, without native args.
package legacy

import (
	"strings"

	"github.com/skosovsky/tooluse"
)

// Block is one piece of an assistant message: either text or a tool use.
type Block struct {
	Text    string
	ToolUse *tooluse.ToolUse
	// Partial is set on the trailing block while it is still being streamed.
	Partial bool
}

// IsTool reports whether b is a tool use block.
func (b Block) IsTool() bool { return b.ToolUse != nil }

var (
	toolOpenTags  = openTags(tooluse.ToolNames())
	paramOpenTags = openTags(tooluse.ParamNames())
)

type tag[N ~string] struct {
	name N
	open string
}

func openTags[N ~string](names []N) []tag[N] {
	out := make([]tag[N], 0, len(names))
	for _, n := range names {
		out = append(out, tag[N]{name: n, open: "<" + string(n) + ">"})
	}
	return out
}

func matchOpen[N ~string](acc string, tags []tag[N]) (N, bool) {
	for _, t := range tags {
		if strings.HasSuffix(acc, t.open) {
			return t.name, true
		}
	}
	var zero N
	return zero, false
}

// Parse splits message into blocks. It is a pure function of the text seen so far, so a
// stream can call it on every chunk; the trailing block is Partial when its tag (or the
// text after the last tool) is not closed yet. Tool use IDs are left empty.
func Parse(message string) []Block {
	var (
		blocks     []Block
		cur        *tooluse.ToolUse
		toolStart  int
		param      tooluse.ParamName
		paramStart int
		textStart  int
	)
	for i := 0; i < len(message); i++ {
		if message[i] != '>' {
			continue
		}
		acc := message[:i+1]

		if cur != nil && param != "" {
			closeTag := "</" + string(param) + ">"
			if strings.HasSuffix(acc, closeTag) {
				cur.Params[param] = paramValue(param, message[paramStart:i+1-len(closeTag)])
				param = ""
			}
			continue
		}

		if cur != nil {
			closeTag := "</" + string(cur.Name) + ">"
			if strings.HasSuffix(acc, closeTag) {
				if cur.Params.Has(tooluse.ParamContent) {
					body := message[toolStart : i+1-len(closeTag)]
					if content, ok := outerContent(body); ok {
						cur.Params[tooluse.ParamContent] = paramValue(tooluse.ParamContent, content)
					}
				}
				cur.Partial = false
				blocks = append(blocks, Block{ToolUse: cur})
				cur = nil
				textStart = i + 1
				continue
			}
			if p, ok := matchOpen(acc, paramOpenTags); ok {
				param = p
				paramStart = i + 1
			}
			continue
		}

		if name, ok := matchOpen(acc, toolOpenTags); ok {
			openLen := len(name) + 2
			if text := strings.TrimSpace(message[textStart : i+1-openLen]); text != "" {
				blocks = append(blocks, Block{Text: text})
			}
			cur = &tooluse.ToolUse{Name: name, Params: tooluse.LegacyParams{}, Partial: true}
			toolStart = i + 1
		}
	}

	switch {
	case cur != nil:
		if param != "" {
			v := trimPartialTag(message[paramStart:], "</"+string(param)+">")
			cur.Params[param] = paramValue(param, v)
		}
		blocks = append(blocks, Block{ToolUse: cur, Partial: true})
	default:
		if text := strings.TrimSpace(trimDanglingTag(message[textStart:])); text != "" {
			blocks = append(blocks, Block{Text: text, Partial: true})
		}
	}
	return blocks
}

// outerContent returns the text between the first <content> and the last </content> of
// a tool body, so file contents may themselves contain the closing tag.
func outerContent(body string) (string, bool) {
	const open, closing = "<content>", "</content>"
	first := strings.Index(body, open)
	last := strings.LastIndex(body, closing)
	if first < 0 || last < first+len(open) {
		return "", false
	}
	return body[first+len(open) : last], true
}

// paramValue trims surrounding whitespace; content only loses one leading and one
// trailing newline so indentation survives.
func paramValue(p tooluse.ParamName, v string) string {
	if p != tooluse.ParamContent {
		return strings.TrimSpace(v)
	}
	v = strings.TrimPrefix(v, "\r\n")
	v = strings.TrimPrefix(v, "\n")
	v = strings.TrimSuffix(v, "\n")
	return strings.TrimSuffix(v, "\r")
}

// trimPartialTag drops a half-streamed closing tag from the end of v.
func trimPartialTag(v, closeTag string) string {
	for n := len(closeTag) - 1; n > 0; n-- {
		if strings.HasSuffix(v, closeTag[:n]) {
			return v[:len(v)-n]
		}
	}
	return v
}

// trimDanglingTag drops a trailing "<..." that has not been closed with '>' yet.
func trimDanglingTag(s string) string {
	i := strings.LastIndexByte(s, '<')
	if i < 0 || strings.IndexByte(s[i:], '>') >= 0 {
		return s
	}
	return s[:i]
}
