package domain

import "time"

type User struct {
	ID             UserID    `gorm:"type:uuid;primaryKey" db:"id"`
	Email          string    `gorm:"type:text;not null;uniqueIndex:ux_users_email" db:"email"`
	FullName       string    `gorm:"type:text;not null" db:"full_name"`
	PasswordHash   string    `gorm:"type:text;not null" db:"password_hash"`
	ProfilePicture string    `gorm:"type:text;not null;default:''" db:"profile_picture"`
	Verified       bool      `gorm:"not null;default:false" db:"verified"`
	LastSeen       time.Time `gorm:"not null" db:"last_seen"`

	// At most one outstanding challenge; issuing a new one replaces it.
	ChallengeKind      ChallengeKind `gorm:"type:text;not null;default:''" db:"challenge_kind"`
	ChallengeCode      string        `gorm:"type:text;not null;default:''" db:"challenge_code"`
	ChallengeExpiresAt *time.Time    `db:"challenge_expires_at"`

	// Only the SHA-256 of the reset token is kept.
	ResetTokenHash      *string    `gorm:"type:text;index:ix_users_reset_token_hash" db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`

	CreatedAt time.Time `gorm:"not null" db:"created_at"`
	UpdatedAt time.Time `gorm:"not null" db:"updated_at"`
}

func (User) TableName() string { return "users" }

// Challenge returns the outstanding challenge, or nil when none is pending.
func (u *User) Challenge() *Challenge {
	if u.ChallengeKind == ChallengeNone || u.ChallengeExpiresAt == nil {
		return nil
	}
	return &Challenge{Kind: u.ChallengeKind, Code: u.ChallengeCode, ExpiresAt: *u.ChallengeExpiresAt}
}

func (u *User) SetChallenge(c *Challenge) {
	if c == nil {
		u.ChallengeKind = ChallengeNone
		u.ChallengeCode = ""
		u.ChallengeExpiresAt = nil
		return
	}
	exp := c.ExpiresAt
	u.ChallengeKind = c.Kind
	u.ChallengeCode = c.Code
	u.ChallengeExpiresAt = &exp
}
