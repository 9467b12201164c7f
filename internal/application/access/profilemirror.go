package access

import (
	"context"
	"time"

	"amica/internal/domain/grant"
)

// ProfileEntitlement is the slice of the account profile this subsystem
// cares about: the entitlement windows mirrored onto the profile record.
type ProfileEntitlement struct {
	PaidUntil  *time.Time
	PromoUntil *time.Time
}

// ProfileMirror is the authoritative profile store for logged-in users.
// Grant rows and the profile deliberately store the same windows; the
// merge writes through to the mirror whenever it produces a later value,
// which is how a payment made as a guest gets permanently attached to the
// account.
type ProfileMirror interface {
	// Get returns the profile's entitlement windows, or (nil, nil) when no
	// profile row exists for the account.
	Get(ctx context.Context, accountID string) (*ProfileEntitlement, error)

	// Update writes the entitlement windows onto the profile record.
	Update(ctx context.Context, accountID string, paidUntil, promoUntil *time.Time) error
}

// WindowAdvanced reports whether merged is strictly later than current.
func WindowAdvanced(current, merged *time.Time) bool {
	if merged == nil {
		return false
	}
	return current == nil || merged.After(*current)
}

// MirrorWindows pushes paid/promo windows onto the account profile. The
// mirror merges expansively: a later window only the profile holds
// survives, and nothing is written when neither window advances.
func MirrorWindows(ctx context.Context, profiles ProfileMirror, accountID string, paidUntil, promoUntil *time.Time) error {
	current, err := profiles.Get(ctx, accountID)
	if err != nil {
		return err
	}

	var curPaid, curPromo *time.Time
	if current != nil {
		curPaid, curPromo = current.PaidUntil, current.PromoUntil
	}

	mergedPaid := grant.LaterOf(curPaid, paidUntil)
	mergedPromo := grant.LaterOf(curPromo, promoUntil)

	if !WindowAdvanced(curPaid, mergedPaid) && !WindowAdvanced(curPromo, mergedPromo) {
		return nil
	}

	return profiles.Update(ctx, accountID, mergedPaid, mergedPromo)
}
