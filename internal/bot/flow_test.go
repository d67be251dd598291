package bot

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *Session {
	return &Session{ApplicantID: 1, Step: StepAwaitName}
}

func TestAdvance_FullWalk(t *testing.T) {
	s := newSession()

	ev, reply := advance(s, "Иванов Иван", 1950, 2030)
	assert.Equal(t, eventPrompt, ev)
	assert.Equal(t, msgAskYear, reply)
	assert.Equal(t, StepAwaitYear, s.Step)
	assert.Equal(t, "иванов иван", s.Name)

	ev, reply = advance(s, "примерно 2015 год", 1950, 2030)
	assert.Equal(t, eventPrompt, ev)
	assert.Equal(t, msgAskClass, reply)
	assert.Equal(t, StepAwaitClass, s.Step)
	assert.Equal(t, 2015, s.Year)

	ev, _ = advance(s, "в 5-м классе", 1950, 2030)
	assert.Equal(t, eventComplete, ev)
	assert.Equal(t, StepComplete, s.Step)
	assert.Equal(t, 5, s.Class)
}

func TestAdvance_InvalidInputDoesNotAdvance(t *testing.T) {
	tests := []struct {
		name   string
		step   string
		input  string
		reply  string
	}{
		{"one word name", StepAwaitName, "Иванов", msgAskNameAgain},
		{"name with year tacked on", StepAwaitName, "Иванов Иван 2015", msgAskNameAgain},
		{"name with symbols", StepAwaitName, "Иванов @ivanov", msgAskNameAgain},
		{"no digits year", StepAwaitYear, "давно", msgAskYearAgain},
		{"year out of range", StepAwaitYear, "1812", msgAskYearAgain},
		{"class out of range", StepAwaitClass, "15", msgAskClassAgain},
		{"no digits class", StepAwaitClass, "пятый", msgAskClassAgain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			s.Step = tt.step

			ev, reply := advance(s, tt.input, 1950, 2030)

			assert.Equal(t, eventPrompt, ev)
			assert.Equal(t, tt.reply, reply)
			assert.Equal(t, tt.step, s.Step, "stage must not advance on invalid input")
		})
	}
}

// The flow cannot complete with any answer missing: completion is only
// reachable from the class stage, which presumes name and year were set.
func TestAdvance_NeverCompletesWithMissingFields(t *testing.T) {
	s := newSession()

	inputs := []string{"Иванов", "2015", "5", "Иванов Иван", "нет", "2015", "какой?", "5"}
	for _, input := range inputs {
		ev, _ := advance(s, input, 1950, 2030)
		if ev == eventComplete {
			require.NotEmpty(t, s.Name)
			require.NotZero(t, s.Year)
			require.NotZero(t, s.Class)
		}
	}

	assert.Equal(t, StepComplete, s.Step)
}

func TestAdvance_EscalateFromAnyStage(t *testing.T) {
	for _, step := range []string{StepAwaitName, StepAwaitYear, StepAwaitClass} {
		s := newSession()
		s.Step = step

		ev, _ := advance(s, "/admin", 1950, 2030)
		assert.Equal(t, eventEscalate, ev, "step %s", step)

		s.Step = step
		ev, _ = advance(s, btnContactAdmin, 1950, 2030)
		assert.Equal(t, eventEscalate, ev, "step %s via button", step)
	}
}

func TestAdvance_Cancel(t *testing.T) {
	s := newSession()
	s.Step = StepAwaitYear

	ev, reply := advance(s, "/cancel", 1950, 2030)

	assert.Equal(t, eventCancel, ev)
	assert.Equal(t, msgCancelled, reply)
}

func TestAdvance_NameAcceptsHyphensAndInitials(t *testing.T) {
	for _, name := range []string{"Петрова-Водкина Анна", "Сидоров А."} {
		s := newSession()

		ev, _ := advance(s, name, 1950, 2030)

		assert.Equal(t, eventPrompt, ev)
		assert.Equal(t, StepAwaitYear, s.Step, name)
	}
}

func TestTakeTriple_ClaimsFreshSessionOnce(t *testing.T) {
	s := newSession()

	a, ok := takeTriple(s, "ivanov", "Федоров Сергей", 2010, 2)
	require.True(t, ok)
	assert.Equal(t, "федоров сергей", a.Name)
	assert.Equal(t, 2010, a.Year)
	assert.Equal(t, 2, a.Class)
	assert.Equal(t, StepComplete, s.Step)

	_, ok = takeTriple(s, "ivanov", "Федоров Сергей", 2010, 2)
	assert.False(t, ok, "a duplicate message must not get a second decision")
}

func TestTakeTriple_MidFlowDoesNotClaim(t *testing.T) {
	s := newSession()
	s.Step = StepAwaitYear

	_, ok := takeTriple(s, "ivanov", "Федоров Сергей", 2010, 2)

	assert.False(t, ok)
	assert.Equal(t, StepAwaitYear, s.Step)
}

// Rapid duplicates of the same triple race for the session; exactly one
// caller may win the claim.
func TestTakeTriple_ConcurrentDuplicates(t *testing.T) {
	s := newSession()

	var wg sync.WaitGroup
	var wins int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := takeTriple(s, "ivanov", "Федоров Сергей", 2010, 2); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}

// A message reaching an already-completed session gets no second decision.
func TestAdvance_CompletedSessionIsInert(t *testing.T) {
	s := newSession()
	s.Step = StepComplete

	ev, reply := advance(s, "5", 1950, 2030)

	assert.Equal(t, eventPrompt, ev)
	assert.Empty(t, reply)
	assert.Equal(t, StepComplete, s.Step)
}
