package dto

import (
	"time"

	"talks/internal/domain"
)

type UserResponse struct {
	ID             string    `json:"_id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	LastSeen       time.Time `json:"lastSeen"`
	IsVerified     bool      `json:"isVerified"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		LastSeen:       u.LastSeen,
		IsVerified:     u.Verified,
	}
}
