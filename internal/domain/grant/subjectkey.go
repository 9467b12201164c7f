package grant

import "strings"

// accountKeyPrefix scopes grants that belong to an authenticated account.
// Guest grants are keyed by the bare device token.
const accountKeyPrefix = "account:"

// SubjectKey is the identity a grant is keyed on: either an opaque device
// token (guest scope) or an account-prefixed account id (account scope).
type SubjectKey string

// DeviceSubjectKey builds the guest-scope key for a device token.
func DeviceSubjectKey(deviceToken string) SubjectKey {
	return SubjectKey(deviceToken)
}

// AccountSubjectKey builds the account-scope key for an account id.
func AccountSubjectKey(accountID string) SubjectKey {
	return SubjectKey(accountKeyPrefix + accountID)
}

// LegacyAccountSubjectKey is the pre-migration form that keyed account
// grants by the bare account id. Kept only for the one-time re-key path.
func LegacyAccountSubjectKey(accountID string) SubjectKey {
	return SubjectKey(accountID)
}

func (k SubjectKey) String() string {
	return string(k)
}

// IsAccountScoped reports whether the key carries the account prefix.
func (k SubjectKey) IsAccountScoped() bool {
	return strings.HasPrefix(string(k), accountKeyPrefix)
}

// AccountID extracts the account id from an account-scoped key.
func (k SubjectKey) AccountID() (string, bool) {
	if !k.IsAccountScoped() {
		return "", false
	}
	return strings.TrimPrefix(string(k), accountKeyPrefix), true
}
