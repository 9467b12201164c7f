package grant

import (
	"math"
	"strconv"
	"time"
)

// AccessLevel is the derived access class for a subject.
type AccessLevel string

const (
	AccessPaid  AccessLevel = "Paid"
	AccessPromo AccessLevel = "Promo"
	AccessTrial AccessLevel = "Trial"
	AccessNone  AccessLevel = "None"
)

// Verdict is the point-in-time access decision derived from grant state.
type Verdict struct {
	Access             AccessLevel
	HasAccess          bool
	TrialQuestionsLeft int
	AccessUntil        *time.Time
}

// IsActive reports whether a window timestamp is present and strictly in
// the future.
func IsActive(ts *time.Time, now time.Time) bool {
	return ts != nil && ts.After(now)
}

// LaterOf returns the later of two optional timestamps, or whichever is
// present, or nil if both are absent. Entitlement merges are always
// expansive, so merge code uses this and never an earlier-of.
func LaterOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

// ClampTrial clamps a trial counter into [0, ceiling].
func ClampTrial(n, ceiling int) int {
	if ceiling < 0 {
		ceiling = 0
	}
	if n < 0 {
		return 0
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// ClampTrialValue clamps a raw trial value of unknown shape. Non-numeric
// input resolves to the ceiling: trial is a soft limit, not a security
// boundary, so the counter fails open rather than locking a visitor out
// over a malformed row.
func ClampTrialValue(v any, ceiling int) int {
	switch n := v.(type) {
	case nil:
		return ClampTrial(ceiling, ceiling)
	case int:
		return ClampTrial(n, ceiling)
	case int32:
		return ClampTrial(int(n), ceiling)
	case int64:
		return ClampTrial(int(n), ceiling)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return ClampTrial(ceiling, ceiling)
		}
		return ClampTrial(int(math.Floor(n)), ceiling)
	case float32:
		return ClampTrialValue(float64(n), ceiling)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return ClampTrial(ceiling, ceiling)
		}
		return ClampTrialValue(f, ceiling)
	default:
		return ClampTrial(ceiling, ceiling)
	}
}

// DeriveVerdict computes the access verdict from a trial counter and the
// paid/promo windows. Paid wins over promo, promo over trial.
func DeriveVerdict(trialQuestions int, paidUntil, promoUntil *time.Time, now time.Time) Verdict {
	v := Verdict{
		TrialQuestionsLeft: trialQuestions,
		AccessUntil:        LaterOf(paidUntil, promoUntil),
	}

	switch {
	case IsActive(paidUntil, now):
		v.Access = AccessPaid
		v.HasAccess = true
	case IsActive(promoUntil, now):
		v.Access = AccessPromo
		v.HasAccess = true
	case trialQuestions > 0:
		v.Access = AccessTrial
		v.HasAccess = true
	default:
		v.Access = AccessNone
	}

	return v
}
