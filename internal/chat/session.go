package chat

import "github.com/set-night/aishifts/internal/domain"

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Controls reports which input controls are usable for the open item.
type Controls struct {
	Image bool
	Video bool
	File  bool
	Text  bool
}

// Session is the state of one conversation about a single item.
type Session struct {
	item       domain.Item
	capability domain.Capability

	text    string
	pending *domain.Attachment
	preview *Preview

	transcript []Message
	inFlight   int
	closed     bool
}

func newSession(item domain.Item) *Session {
	return &Session{
		item:       item,
		capability: item.Capability(),
	}
}

func (s *Session) controls() Controls {
	return Controls{
		Image: s.capability.Enabled(domain.KindImage),
		Video: s.capability.Enabled(domain.KindVideo),
		File:  s.capability.Enabled(domain.KindFile),
		Text:  s.capability.Enabled(domain.KindText),
	}
}

func (s *Session) typingIndex() int {
	for i, m := range s.transcript {
		if m.Kind == KindTyping {
			return i
		}
	}
	return -1
}

func (s *Session) removeTyping() {
	if i := s.typingIndex(); i >= 0 {
		s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
	}
}

func (s *Session) clearStaged() {
	s.pending = nil
	s.preview = nil
}
