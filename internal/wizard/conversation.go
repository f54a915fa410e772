package wizard

import "github.com/bryanwahyu/clausecode/internal/domain/analysis"

// Conversation is the append-only list of follow-up turns for the current result.
type Conversation struct {
	turns []analysis.Turn
}

// Add appends one turn.
func (c *Conversation) Add(role analysis.Role, content string) {
	c.turns = append(c.turns, analysis.Turn{Role: role, Content: content})
}

// Reset drops every turn.
func (c *Conversation) Reset() {
	c.turns = nil
}

// History returns a copy of the turns in order.
func (c *Conversation) History() []analysis.Turn {
	out := make([]analysis.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len is the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }
