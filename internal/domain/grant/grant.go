package grant

import (
	"fmt"
	"time"

	"amica/internal/shared/biztime"
)

// Grant is the entitlement record for one subject key. It tracks the
// remaining free-question allowance and the paid/promo access windows.
type Grant struct {
	id             uint
	subjectKey     SubjectKey
	accountID      *string
	trialQuestions int
	trialCeiling   int
	paidUntil      *time.Time
	promoUntil     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewGrant creates a fresh grant with the full trial allowance.
func NewGrant(subjectKey SubjectKey, accountID *string, trialCeiling int) (*Grant, error) {
	if subjectKey == "" {
		return nil, fmt.Errorf("subject key is required")
	}
	if trialCeiling < 0 {
		return nil, fmt.Errorf("trial ceiling cannot be negative")
	}

	now := biztime.NowUTC()
	return &Grant{
		subjectKey:     subjectKey,
		accountID:      accountID,
		trialQuestions: trialCeiling,
		trialCeiling:   trialCeiling,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID             uint
	SubjectKey     SubjectKey
	AccountID      *string
	TrialQuestions int
	TrialCeiling   int
	PaidUntil      *time.Time
	PromoUntil     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReconstructGrant rebuilds a grant from persistence. The trial counter is
// clamped on the way in; stored values are never trusted raw.
func ReconstructGrant(p ReconstructParams) (*Grant, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("grant ID cannot be zero")
	}
	if p.SubjectKey == "" {
		return nil, fmt.Errorf("subject key is required")
	}

	return &Grant{
		id:             p.ID,
		subjectKey:     p.SubjectKey,
		accountID:      p.AccountID,
		trialQuestions: ClampTrial(p.TrialQuestions, p.TrialCeiling),
		trialCeiling:   p.TrialCeiling,
		paidUntil:      biztime.ToUTC(p.PaidUntil),
		promoUntil:     biztime.ToUTC(p.PromoUntil),
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (g *Grant) ID() uint                { return g.id }
func (g *Grant) SubjectKey() SubjectKey  { return g.subjectKey }
func (g *Grant) AccountID() *string      { return g.accountID }
func (g *Grant) TrialQuestions() int     { return g.trialQuestions }
func (g *Grant) TrialCeiling() int       { return g.trialCeiling }
func (g *Grant) PaidUntil() *time.Time   { return g.paidUntil }
func (g *Grant) PromoUntil() *time.Time  { return g.promoUntil }
func (g *Grant) CreatedAt() time.Time    { return g.createdAt }
func (g *Grant) UpdatedAt() time.Time    { return g.updatedAt }

// SetID sets the grant ID (only for persistence layer use)
func (g *Grant) SetID(id uint) error {
	if g.id != 0 {
		return fmt.Errorf("grant ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("grant ID cannot be zero")
	}
	g.id = id
	return nil
}

// PromoteAccount attaches a now-known account id to a guest grant. The
// subject key stays the device token; only the reference is filled in.
// Calling it again with the same id is a no-op.
func (g *Grant) PromoteAccount(accountID string) bool {
	if accountID == "" {
		return false
	}
	if g.accountID != nil && *g.accountID == accountID {
		return false
	}
	g.accountID = &accountID
	g.updatedAt = biztime.NowUTC()
	return true
}

// ApplyMerged writes the reconciled trial counter and access windows onto
// the aggregate. Returns true when anything actually changed, so callers
// can skip redundant write-backs.
func (g *Grant) ApplyMerged(trial int, paidUntil, promoUntil *time.Time) bool {
	trial = ClampTrial(trial, g.trialCeiling)
	changed := false
	if g.trialQuestions != trial {
		g.trialQuestions = trial
		changed = true
	}
	if !biztime.Equal(g.paidUntil, paidUntil) {
		g.paidUntil = biztime.ToUTC(paidUntil)
		changed = true
	}
	if !biztime.Equal(g.promoUntil, promoUntil) {
		g.promoUntil = biztime.ToUTC(promoUntil)
		changed = true
	}
	if changed {
		g.updatedAt = biztime.NowUTC()
	}
	return changed
}

// ExtendPaid pushes the paid window `days` days past the later of now and
// the current expiry. Recomputing from current state keeps replayed
// payment notifications from double-crediting.
func (g *Grant) ExtendPaid(days int, now time.Time) time.Time {
	base := now
	if g.paidUntil != nil && g.paidUntil.After(now) {
		base = *g.paidUntil
	}
	until := base.AddDate(0, 0, days)
	g.paidUntil = &until
	g.updatedAt = biztime.NowUTC()
	return until
}

// GrantPromo extends the promo window. Merges only extend, never revoke.
func (g *Grant) GrantPromo(until time.Time) bool {
	u := until.UTC()
	if g.promoUntil != nil && !g.promoUntil.Before(u) {
		return false
	}
	g.promoUntil = &u
	g.updatedAt = biztime.NowUTC()
	return true
}

// ConsumeTrialQuestion burns one free question, flooring at zero.
func (g *Grant) ConsumeTrialQuestion() int {
	if g.trialQuestions > 0 {
		g.trialQuestions--
		g.updatedAt = biztime.NowUTC()
	}
	return g.trialQuestions
}

// Verdict derives the point-in-time access verdict for this grant.
func (g *Grant) Verdict(now time.Time) Verdict {
	return DeriveVerdict(g.trialQuestions, g.paidUntil, g.promoUntil, now)
}
