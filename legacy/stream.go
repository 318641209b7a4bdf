package legacy

import (
	"maps"
	"strings"

	"github.com/google/uuid"
)

// Stream turns chunks of one assistant message into block updates. It is not safe for
// concurrent use; one Stream belongs to one message.
type Stream struct {
	buf         strings.Builder
	ids         []string
	emitted     int
	lastPartial *Block
	newID       func() string
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithIDGenerator replaces the uuid generator used for tool use IDs.
func WithIDGenerator(fn func() string) StreamOption {
	return func(s *Stream) {
		s.newID = fn
	}
}

// NewStream creates an empty stream.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed appends chunk and returns the blocks that completed or changed since the last
// call, in message order. Every completed block is returned exactly once. The trailing
// partial block is returned again only when it changed. A tool use keeps its ID across
// all of its snapshots.
func (s *Stream) Feed(chunk string) []Block {
	s.buf.WriteString(chunk)
	return s.diff(Parse(s.buf.String()))
}

// Close ends the message: a trailing partial block is returned as complete, the way a
// message that stops mid-tag is still executed (and typically fails validation).
func (s *Stream) Close() []Block {
	blocks := Parse(s.buf.String())
	if n := len(blocks); n > 0 && blocks[n-1].Partial {
		blocks[n-1].Partial = false
		if blocks[n-1].ToolUse != nil {
			blocks[n-1].ToolUse.Partial = false
		}
	}
	return s.diff(blocks)
}

// Text returns everything fed so far.
func (s *Stream) Text() string { return s.buf.String() }

func (s *Stream) diff(blocks []Block) []Block {
	var out []Block
	for i := s.emitted; i < len(blocks); i++ {
		b := blocks[i]
		if b.ToolUse != nil {
			for len(s.ids) <= i {
				s.ids = append(s.ids, "")
			}
			if s.ids[i] == "" {
				s.ids[i] = s.newID()
			}
			b.ToolUse.ID = s.ids[i]
		}
		if b.Partial {
			if s.lastPartial != nil && sameBlock(*s.lastPartial, b) {
				continue
			}
			snap := b
			s.lastPartial = &snap
			out = append(out, b)
			continue
		}
		out = append(out, b)
		s.emitted = i + 1
		s.lastPartial = nil
	}
	return out
}

func sameBlock(a, b Block) bool {
	if a.Text != b.Text || a.Partial != b.Partial || (a.ToolUse == nil) != (b.ToolUse == nil) {
		return false
	}
	if a.ToolUse == nil {
		return true
	}
	return a.ToolUse.Name == b.ToolUse.Name && maps.Equal(a.ToolUse.Params, b.ToolUse.Params)
}
