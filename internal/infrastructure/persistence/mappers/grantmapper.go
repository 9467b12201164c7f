package mappers

import (
	"amica/internal/domain/grant"
	"amica/internal/infrastructure/persistence/models"
)

// GrantToModel converts a grant aggregate to its persistence model.
func GrantToModel(g *grant.Grant) *models.GrantModel {
	return &models.GrantModel{
		ID:             g.ID(),
		SubjectKey:     g.SubjectKey().String(),
		AccountID:      g.AccountID(),
		TrialQuestions: g.TrialQuestions(),
		PaidUntil:      g.PaidUntil(),
		PromoUntil:     g.PromoUntil(),
		CreatedAt:      g.CreatedAt(),
		UpdatedAt:      g.UpdatedAt(),
	}
}

// GrantToDomain converts a persistence model back to the aggregate. The
// trial ceiling comes from configuration, not storage; the stored counter
// passes through the fail-open clamp on the way in, so a malformed row
// resolves to the ceiling rather than locking the subject out.
func GrantToDomain(m *models.GrantModel, trialCeiling int) (*grant.Grant, error) {
	return grant.ReconstructGrant(grant.ReconstructParams{
		ID:             m.ID,
		SubjectKey:     grant.SubjectKey(m.SubjectKey),
		AccountID:      m.AccountID,
		TrialQuestions: grant.ClampTrialValue(m.TrialQuestions, trialCeiling),
		TrialCeiling:   trialCeiling,
		PaidUntil:      m.PaidUntil,
		PromoUntil:     m.PromoUntil,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	})
}
