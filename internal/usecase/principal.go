package usecase

import (
	"cinema-reviews/internal/data/entity"
	"cinema-reviews/pkg/apperror"

	"github.com/google/uuid"
)

// Principal is whoever issued a request: an Identity or Anonymous.
type Principal interface {
	isPrincipal()
}

// Identity is an authenticated user.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     entity.UserRole
}

func (Identity) isPrincipal() {}

func (i Identity) IsAdmin() bool {
	return i.Role == entity.RoleAdmin
}

// Anonymous is a request without a usable credential.
type Anonymous struct{}

func (Anonymous) isPrincipal() {}

func identityFromUser(user *entity.User) Identity {
	return Identity{UserID: user.ID, Username: user.Username, Role: user.Role}
}

// RequireIdentity fails with Unauthenticated for anonymous requests.
func RequireIdentity(p Principal) (Identity, error) {
	switch v := p.(type) {
	case Identity:
		return v, nil
	default:
		return Identity{}, apperror.Unauthenticated("authentication required")
	}
}

// RequireRole returns the identity when it holds role. Every identity holds
// RoleUser.
func RequireRole(p Principal, role entity.UserRole) (Identity, error) {
	identity, err := RequireIdentity(p)
	if err != nil {
		return Identity{}, err
	}

	switch role {
	case entity.RoleUser:
		return identity, nil
	case entity.RoleAdmin:
		if identity.IsAdmin() {
			return identity, nil
		}
		return Identity{}, apperror.Forbidden("admin access required")
	default:
		return Identity{}, apperror.Forbidden("unknown role")
	}
}

// viewerID returns the user id behind p, if any.
func viewerID(p Principal) (uuid.UUID, bool) {
	if identity, ok := p.(Identity); ok {
		return identity.UserID, true
	}
	return uuid.Nil, false
}

// canSee applies the read-time visibility rule.
func canSee(p Principal, review *entity.Review) bool {
	if review.Status == entity.StatusApproved {
		return true
	}
	switch v := p.(type) {
	case Identity:
		return v.IsAdmin() || review.IsOwnedBy(v.UserID)
	default:
		return false
	}
}
