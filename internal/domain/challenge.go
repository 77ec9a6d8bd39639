package domain

import "time"

// ChallengeKind tags which flow an outstanding one-time code belongs to, so a
// signup confirmation code can never complete a login and vice versa.
type ChallengeKind string

const (
	ChallengeNone          ChallengeKind = ""
	ChallengeSignupConfirm ChallengeKind = "signup_confirm"
	ChallengeLogin2FA      ChallengeKind = "login_2fa"
)

type Challenge struct {
	Kind      ChallengeKind
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether now is strictly after the expiry.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
