package grant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrant(t *testing.T) *Grant {
	g, err := NewGrant(DeviceSubjectKey("dev-token"), nil, 5)
	require.NoError(t, err)
	return g
}

func TestNewGrant(t *testing.T) {
	g := newTestGrant(t)

	assert.Equal(t, SubjectKey("dev-token"), g.SubjectKey())
	assert.Nil(t, g.AccountID())
	assert.Equal(t, 5, g.TrialQuestions(), "fresh grant starts with the full allowance")
	assert.Nil(t, g.PaidUntil())
	assert.Nil(t, g.PromoUntil())
}

func TestNewGrant_Validation(t *testing.T) {
	_, err := NewGrant("", nil, 5)
	assert.Error(t, err)

	_, err = NewGrant(DeviceSubjectKey("dev"), nil, -1)
	assert.Error(t, err)
}

func TestReconstructGrant_ClampsTrial(t *testing.T) {
	now := time.Now().UTC()
	g, err := ReconstructGrant(ReconstructParams{
		ID:             1,
		SubjectKey:     DeviceSubjectKey("dev"),
		TrialQuestions: 99,
		TrialCeiling:   5,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, g.TrialQuestions(), "stored counters are clamped on the way in")

	g, err = ReconstructGrant(ReconstructParams{
		ID:             2,
		SubjectKey:     DeviceSubjectKey("dev"),
		TrialQuestions: -3,
		TrialCeiling:   5,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, g.TrialQuestions())
}

func TestGrant_ExtendPaid_FromScratch(t *testing.T) {
	g := newTestGrant(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	until := g.ExtendPaid(31, now)

	assert.Equal(t, now.AddDate(0, 0, 31), until)
	assert.Equal(t, &until, g.PaidUntil())
}

func TestGrant_ExtendPaid_StacksOnActiveWindow(t *testing.T) {
	g := newTestGrant(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := g.ExtendPaid(31, now)
	second := g.ExtendPaid(31, now)

	assert.Equal(t, first.AddDate(0, 0, 31), second,
		"a second purchase extends from the current expiry, not from now")
}

func TestGrant_ExtendPaid_ExpiredWindowRestartsFromNow(t *testing.T) {
	g := newTestGrant(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.ExtendPaid(31, now.AddDate(0, -6, 0))

	until := g.ExtendPaid(31, now)
	assert.Equal(t, now.AddDate(0, 0, 31), until,
		"a lapsed window does not credit the dead time")
}

func TestGrant_GrantPromo(t *testing.T) {
	g := newTestGrant(t)
	near := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	far := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, g.GrantPromo(far))
	assert.Equal(t, &far, g.PromoUntil())

	assert.False(t, g.GrantPromo(near), "promo windows only extend, never shrink")
	assert.Equal(t, &far, g.PromoUntil())

	assert.False(t, g.GrantPromo(far), "same window is a no-op")
}

func TestGrant_ApplyMerged(t *testing.T) {
	g := newTestGrant(t)
	paid := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	changed := g.ApplyMerged(3, &paid, nil)
	assert.True(t, changed)
	assert.Equal(t, 3, g.TrialQuestions())
	assert.Equal(t, &paid, g.PaidUntil())

	changed = g.ApplyMerged(3, &paid, nil)
	assert.False(t, changed, "re-applying identical values reports no change")

	changed = g.ApplyMerged(99, &paid, nil)
	assert.True(t, changed)
	assert.Equal(t, 5, g.TrialQuestions(), "merged counter clamps to the ceiling")
}

func TestGrant_ConsumeTrialQuestion(t *testing.T) {
	g := newTestGrant(t)

	for want := 4; want >= 0; want-- {
		assert.Equal(t, want, g.ConsumeTrialQuestion())
	}
	assert.Equal(t, 0, g.ConsumeTrialQuestion(), "counter floors at zero")
}

func TestGrant_PromoteAccount(t *testing.T) {
	g := newTestGrant(t)

	assert.False(t, g.PromoteAccount(""))
	assert.True(t, g.PromoteAccount("acct-1"))
	require.NotNil(t, g.AccountID())
	assert.Equal(t, "acct-1", *g.AccountID())
	assert.Equal(t, SubjectKey("dev-token"), g.SubjectKey(), "subject key stays the device token")

	assert.False(t, g.PromoteAccount("acct-1"), "repeat promotion is a no-op")
}

func TestSubjectKey(t *testing.T) {
	device := DeviceSubjectKey("tok-123")
	assert.False(t, device.IsAccountScoped())
	_, ok := device.AccountID()
	assert.False(t, ok)

	account := AccountSubjectKey("acct-1")
	assert.True(t, account.IsAccountScoped())
	id, ok := account.AccountID()
	assert.True(t, ok)
	assert.Equal(t, "acct-1", id)

	legacy := LegacyAccountSubjectKey("acct-1")
	assert.False(t, legacy.IsAccountScoped(), "legacy keys look like device keys until re-keyed")
}
