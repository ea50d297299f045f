package http

import (
	"time"

	"github.com/hogwarts/facility-booking/internal/user"
)

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID          int64      `json:"id"`
	HogwartsID  string     `json:"hogwartsId"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		HogwartsID:  u.HogwartsID,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

type RegisterRequest struct {
	HogwartsID string `json:"hogwartsId" binding:"required,max=64"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
}

type RegisterResponse struct {
	OK     bool  `json:"ok"`
	UserID int64 `json:"userId"`
}

type LoginRequest struct {
	HogwartsID string `json:"hogwartsId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type LoginResponse struct {
	OK          bool         `json:"ok"`
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}
