package bot

import (
	"sync"
	"time"
)

const (
	StepAwaitName  = "await_name"
	StepAwaitYear  = "await_year"
	StepAwaitClass = "await_class"
	StepComplete   = "complete"
)

// Session tracks one applicant's progress through the questions.
// GroupChatID is the chat of the pending join request, zero until a join
// request has been observed. All reads and writes happen under mu so that
// two updates for the same applicant never interleave.
type Session struct {
	mu sync.Mutex

	ApplicantID int64
	GroupChatID int64
	Step        string
	Name        string
	Year        int
	Class       int
	UpdatedAt   time.Time
}

// Attempt is an immutable snapshot of a session's collected answers, taken
// once the flow finishes. The dispatcher and the escalation path work on
// snapshots so the session itself can be discarded first.
type Attempt struct {
	ApplicantID int64
	GroupChatID int64
	Username    string
	Name        string
	Year        int
	Class       int
}

func (s *Session) snapshot(username string) Attempt {
	return Attempt{
		ApplicantID: s.ApplicantID,
		GroupChatID: s.GroupChatID,
		Username:    username,
		Name:        s.Name,
		Year:        s.Year,
		Class:       s.Class,
	}
}
