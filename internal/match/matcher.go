package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/club30ka/gatebot/internal/db"
)

type Verdict int

const (
	VerdictApprove Verdict = iota
	VerdictReject
	VerdictAmbiguous
)

func (v Verdict) String() string {
	switch v {
	case VerdictApprove:
		return "approve"
	case VerdictReject:
		return "reject"
	case VerdictAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Decision is the matcher's outcome. Record is set for approvals;
// Candidates carries every match when the verdict is ambiguous.
type Decision struct {
	Verdict    Verdict
	Record     *db.AlumnusRecord
	Candidates []db.AlumnusRecord
}

type CandidateFinder interface {
	FindByYearClass(ctx context.Context, year, class int) ([]db.AlumnusRecord, error)
}

type Matcher struct {
	store  CandidateFinder
	logger *zap.Logger
}

func NewMatcher(store CandidateFinder, logger *zap.Logger) *Matcher {
	return &Matcher{
		store:  store,
		logger: logger,
	}
}

// Decide looks up candidates by exact year and class and compares the
// submitted name against each as an unordered token set. Exactly one match
// approves, none rejects, several is ambiguous and goes to the operator:
// a false approval is worse than a false escalation.
func (m *Matcher) Decide(ctx context.Context, name string, year, class int) (Decision, error) {
	candidates, err := m.store.FindByYearClass(ctx, year, class)
	if err != nil {
		return Decision{}, fmt.Errorf("Matcher.Decide: %w", err)
	}

	submitted := TokenSet(name)
	if len(submitted) == 0 {
		return Decision{Verdict: VerdictReject}, nil
	}

	var matched []db.AlumnusRecord
	for _, candidate := range candidates {
		if tokensMatch(submitted, TokenSet(candidate.FullName)) {
			matched = append(matched, candidate)
		}
	}

	m.logger.Info("match decided",
		zap.String("name", NormalizeName(name)),
		zap.Int("year", year),
		zap.Int("class", class),
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", len(matched)))

	switch len(matched) {
	case 0:
		return Decision{Verdict: VerdictReject}, nil
	case 1:
		return Decision{Verdict: VerdictApprove, Record: &matched[0]}, nil
	default:
		return Decision{Verdict: VerdictAmbiguous, Candidates: matched}, nil
	}
}

// tokensMatch reports whether two token sets name the same person: either
// the sets are equal, or one contains exactly one extra token. That
// tolerates an omitted patronymic but nothing looser.
func tokensMatch(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	small, big := a, b
	if len(small) > len(big) {
		small, big = big, small
	}

	if len(big)-len(small) > 1 {
		return false
	}

	for token := range small {
		if _, ok := big[token]; !ok {
			return false
		}
	}

	return true
}
