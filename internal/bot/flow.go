package bot

import (
	"strings"
	"time"
	"unicode"

	"github.com/club30ka/gatebot/internal/match"
)

type flowEvent int

const (
	// eventPrompt: reply sent, flow continues (stage may or may not have advanced).
	eventPrompt flowEvent = iota
	// eventComplete: all three answers collected, session is ready for the matcher.
	eventComplete
	// eventEscalate: applicant asked for the operator, matcher is bypassed.
	eventEscalate
	// eventCancel: applicant abandoned the flow.
	eventCancel
)

// advance feeds one message into the session's state machine and returns
// what happened plus the reply to send. A failed parse never advances the
// stage. Caller must hold the session lock.
func advance(s *Session, text string, yearMin, yearMax int) (flowEvent, string) {
	s.UpdatedAt = time.Now()

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/cancel":
		return eventCancel, msgCancelled
	case "/admin", strings.ToLower(btnContactAdmin):
		return eventEscalate, msgEscalated
	}

	switch s.Step {
	case StepAwaitName:
		name := match.NormalizeName(text)
		if !validName(name) {
			return eventPrompt, msgAskNameAgain
		}
		s.Name = name
		s.Step = StepAwaitYear

		return eventPrompt, msgAskYear

	case StepAwaitYear:
		year, err := match.ParseYear(text, yearMin, yearMax)
		if err != nil {
			return eventPrompt, msgAskYearAgain
		}
		s.Year = year
		s.Step = StepAwaitClass

		return eventPrompt, msgAskClass

	case StepAwaitClass:
		class, err := match.ParseClass(text)
		if err != nil {
			return eventPrompt, msgAskClassAgain
		}
		s.Class = class
		s.Step = StepComplete

		return eventComplete, ""
	}

	// Completed sessions are deleted before dispatch; a message that still
	// reaches one is late and gets no second decision.
	return eventPrompt, ""
}

// validName requires at least two words of letters. Hyphenated surnames
// and initials pass; a stray year or class number stored as the name would
// poison the token comparison.
func validName(name string) bool {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return false
	}

	for _, f := range fields {
		for _, r := range f {
			if !unicode.IsLetter(r) && r != '-' && r != '.' && r != '\'' {
				return false
			}
		}
	}

	return true
}

// takeTriple claims a fresh session with a full triple answered in one
// message. Only the claiming caller gets ok=true; a concurrent duplicate
// sees the completed step and backs off, so one message yields one decision.
func takeTriple(s *Session, uname, name string, year, class int) (Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepAwaitName {
		return Attempt{}, false
	}

	s.UpdatedAt = time.Now()
	s.Name = match.NormalizeName(name)
	s.Year = year
	s.Class = class
	s.Step = StepComplete

	return s.snapshot(uname), true
}
