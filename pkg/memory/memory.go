package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gflights/pkg/provider"
	"gflights/pkg/types"
)

// ErrInvalidEntry is returned for entries whose role is neither user nor model.
var ErrInvalidEntry = errors.New("transcript entry must have role user or model")

// Entry is one displayed exchange line.
type Entry struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// Message converts the entry into the engine's history representation.
func (e Entry) Message() types.Message {
	return types.NewText(e.Role, e.Content)
}

// Store defines how the conversation transcript is kept.
type Store interface {
	Append(entries ...Entry) error
	All() []Entry
	Len() int
	Reset()
}

// Transcript is an append-only, in-memory Store.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTranscript creates a transcript seeded with entries.
func NewTranscript(entries ...Entry) (*Transcript, error) {
	t := &Transcript{entries: make([]Entry, 0, 8)}
	if err := t.Append(entries...); err != nil {
		return nil, err
	}
	return t, nil
}

// Append adds entries in order. Nothing is added if any entry is invalid.
func (t *Transcript) Append(entries ...Entry) error {
	for _, e := range entries {
		if e.Role != types.RoleUser && e.Role != types.RoleModel {
			return ErrInvalidEntry
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entries...)
	return nil
}

// All returns a copy of the transcript so callers cannot mutate internal state.
func (t *Transcript) All() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Reset clears the transcript.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = t.entries[:0]
}

// ReplayInto appends every entry, in order, to the engine session history.
func ReplayInto(s Store, sess provider.Session) error {
	entries := s.All()
	msgs := make([]types.Message, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message()
	}
	if err := sess.AppendHistory(msgs...); err != nil {
		return fmt.Errorf("replay transcript: %w", err)
	}
	return nil
}

// Visible returns the entries shown to the user on replay. Entry 0 is the
// introduction prompt and is never re-rendered.
func Visible(s Store) []Entry {
	all := s.All()
	if len(all) == 0 {
		return all
	}
	return all[1:]
}

// Format renders entries one per line as "[role]: content".
func Format(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Line(e.Role, e.Content))
	}
	return strings.Join(lines, "\n")
}

// Line renders a single transcript line.
func Line(role types.Role, content string) string {
	return fmt.Sprintf("[%s]: %s", role, content)
}

var _ Store = (*Transcript)(nil)
