package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amica/internal/domain/grant"
)

func newSummaryUseCase(repo *fakeGrantRepo) *GetAccessSummaryUseCase {
	merge := NewMergeGrantsUseCase(repo, nil, 5, testLogger())
	return NewGetAccessSummaryUseCase(merge, 5, testLogger())
}

func TestGetSummary_FreshGuest(t *testing.T) {
	uc := newSummaryUseCase(newFakeGrantRepo(5))

	summary, err := uc.Execute(context.Background(), SummaryCommand{DeviceToken: "dev-1"})
	require.NoError(t, err)

	assert.Equal(t, grant.AccessTrial, summary.Access)
	assert.True(t, summary.HasAccess)
	assert.Equal(t, 5, summary.TrialQuestionsLeft)
	assert.False(t, summary.IsLoggedIn)
	assert.False(t, summary.Degraded)
	assert.Nil(t, summary.AccessUntil)
}

func TestGetSummary_PaidAccount(t *testing.T) {
	now := time.Now().UTC()
	far := timePtr(now.Add(30 * 24 * time.Hour))

	repo := newFakeGrantRepo(5)
	repo.seed(grant.DeviceSubjectKey("dev-1"), nil, 0, nil, nil)
	repo.seed(grant.AccountSubjectKey("acct-1"), strPtr("acct-1"), 0, far, nil)

	uc := newSummaryUseCase(repo)

	summary, err := uc.Execute(context.Background(), SummaryCommand{DeviceToken: "dev-1", AccountID: strPtr("acct-1")})
	require.NoError(t, err)

	assert.Equal(t, grant.AccessPaid, summary.Access)
	assert.True(t, summary.HasAccess)
	assert.Equal(t, 0, summary.TrialQuestionsLeft)
	assert.Equal(t, far, summary.PaidUntil)
	assert.Equal(t, far, summary.AccessUntil)
	assert.True(t, summary.IsLoggedIn)
}

func TestGetSummary_ExhaustedGuest(t *testing.T) {
	repo := newFakeGrantRepo(5)
	repo.seed(grant.DeviceSubjectKey("dev-1"), nil, 0, nil, nil)

	uc := newSummaryUseCase(repo)

	summary, err := uc.Execute(context.Background(), SummaryCommand{DeviceToken: "dev-1"})
	require.NoError(t, err)

	assert.Equal(t, grant.AccessNone, summary.Access)
	assert.False(t, summary.HasAccess)
}

func TestGetSummary_DegradesWhenStoreUnavailable(t *testing.T) {
	repo := newFakeGrantRepo(5)
	repo.unavailable = true

	uc := newSummaryUseCase(repo)

	summary, err := uc.Execute(context.Background(), SummaryCommand{DeviceToken: "dev-1"})
	require.NoError(t, err, "a page load never fails because the grant store is down")

	assert.True(t, summary.Degraded)
	assert.Equal(t, grant.AccessTrial, summary.Access)
	assert.True(t, summary.HasAccess)
	assert.Equal(t, 5, summary.TrialQuestionsLeft)
	assert.Nil(t, summary.PaidUntil, "the degraded verdict never claims paid access")
}
