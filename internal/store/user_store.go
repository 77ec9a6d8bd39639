package store

import (
	"context"
	"errors"
	"time"

	"talks/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	if err := u.db.WithContext(ctx).Create(usr).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByResetTokenHash returns the user holding an unexpired reset token with this hash.
func (u *UserStore) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	var user domain.User
	err := u.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", hash, now).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Save writes every column of usr.
func (u *UserStore) Save(ctx context.Context, usr *domain.User) error {
	usr.UpdatedAt = time.Now().UTC()
	return u.db.WithContext(ctx).Save(usr).Error
}

// SetChallenge replaces the outstanding challenge; nil clears it.
func (u *UserStore) SetChallenge(ctx context.Context, id uuid.UUID, c *domain.Challenge) error {
	var tmp domain.User
	tmp.SetChallenge(c)
	return u.updates(ctx, id, map[string]any{
		"challenge_kind":       tmp.ChallengeKind,
		"challenge_code":       tmp.ChallengeCode,
		"challenge_expires_at": tmp.ChallengeExpiresAt,
	})
}

func (u *UserStore) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expiresAt time.Time) error {
	return u.updates(ctx, id, map[string]any{
		"reset_token_hash":       hash,
		"reset_token_expires_at": expiresAt,
	})
}

// RedeemResetToken stores a new password hash and drops the reset token in
// one conditional write. It returns ErrRecordNotFound unless tokenHash is
// still the user's unexpired token, so a token is redeemed at most once.
func (u *UserStore) RedeemResetToken(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) error {
	res := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expires_at > ?", id, tokenHash, now).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetPasswordHash swaps the stored hash only, leaving any reset token alone.
func (u *UserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return u.updates(ctx, id, map[string]any{"password_hash": hash})
}

func (u *UserStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return u.updates(ctx, id, map[string]any{"verified": true})
}

func (u *UserStore) SetProfilePicture(ctx context.Context, id uuid.UUID, url string) error {
	return u.updates(ctx, id, map[string]any{"profile_picture": url})
}

func (u *UserStore) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return u.updates(ctx, id, map[string]any{"last_seen": at})
}

func (u *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return u.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{}).Error
}

// ListExcept returns every user other than id, ordered by name.
func (u *UserStore) ListExcept(ctx context.Context, id uuid.UUID) ([]domain.User, error) {
	var out []domain.User
	err := u.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("full_name ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

// DeleteExpiredUnverified removes unverified users whose signup code expired
// before now. A non-empty email narrows the purge to that address.
func (u *UserStore) DeleteExpiredUnverified(ctx context.Context, email string, now time.Time) (int64, error) {
	q := u.db.WithContext(ctx).
		Where("verified = ? AND challenge_kind = ? AND challenge_expires_at < ?",
			false, domain.ChallengeSignupConfirm, now)
	if email != "" {
		q = q.Where("email = ?", email)
	}
	res := q.Delete(&domain.User{})
	return res.RowsAffected, res.Error
}

func (u *UserStore) updates(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := u.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
