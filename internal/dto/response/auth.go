package response

import (
	"time"

	"cinema-reviews/internal/data/entity"
)

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Role      entity.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// PublicUserResponse is what other users may see about an account.
type PublicUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func UserToPublicResponse(user *entity.User) PublicUserResponse {
	return PublicUserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
	}
}

func AuthToResponse(user *entity.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        UserToResponse(user),
	}
}
