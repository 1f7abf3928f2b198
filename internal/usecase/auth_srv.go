package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/dto/request"
	"cinema-reviews/internal/dto/response"
	"cinema-reviews/pkg/apperror"
	"cinema-reviews/pkg/token"
	"cinema-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Me(ctx context.Context, identity Identity) (*response.UserResponse, error)

	// Authenticate resolves a bearer token to a stored user.
	Authenticate(ctx context.Context, tokenString string) (Identity, error)
	// AuthenticateOptional never fails: anything short of a valid token
	// for an existing user is Anonymous.
	AuthenticateOptional(ctx context.Context, tokenString string) Principal

	// EnsureAdmin creates the bootstrap administrator if it is missing.
	EnsureAdmin(ctx context.Context, cfg utils.AdminConfig) error
}

type authService struct {
	repo   *repository.Repository
	tokens token.Manager
	log    *zap.Logger
}

func NewAuthService(repo *repository.Repository, tokens token.Manager, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	// 2. Username must be free
	existing, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("username already taken")
	}

	// 3. Create
	user, err := s.createUser(ctx, req.Username, req.Password, entity.RoleUser)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	user, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt", zap.String("username", req.Username))
		return nil, apperror.Unauthenticated("invalid username or password")
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, identity Identity) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, apperror.Unauthenticated("missing authorization token")
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, token.ErrExpiredToken) {
			msg = "token expired"
		}
		s.log.Debug("Token rejected", zap.Error(err))
		return Identity{}, apperror.Wrap(err, apperror.KindUnauthenticated, msg)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, apperror.Wrap(err, apperror.KindUnauthenticated, "invalid token")
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return Identity{}, fmt.Errorf("resolve token subject: %w", err)
	}
	if user == nil {
		s.log.Warn("Token subject no longer exists", zap.String("user_id", userID.String()))
		return Identity{}, apperror.Unauthenticated("user no longer exists")
	}

	return identityFromUser(user), nil
}

func (s *authService) AuthenticateOptional(ctx context.Context, tokenString string) Principal {
	if tokenString == "" {
		return Anonymous{}
	}

	identity, err := s.Authenticate(ctx, tokenString)
	if err != nil {
		if apperror.KindOf(err) != apperror.KindUnauthenticated {
			s.log.Error("Optional authentication failed", zap.Error(err))
		}
		return Anonymous{}
	}
	return identity
}

func (s *authService) EnsureAdmin(ctx context.Context, cfg utils.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		s.log.Warn("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	existing, err := s.repo.User.FindByUsername(ctx, cfg.Username)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin() {
			s.log.Warn("Bootstrap admin username belongs to a regular user",
				zap.String("username", cfg.Username))
		}
		return nil
	}

	user, err := s.createUser(ctx, cfg.Username, cfg.Password, entity.RoleAdmin)
	if apperror.KindOf(err) == apperror.KindConflict {
		// created concurrently by another instance
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("Admin user created", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) createUser(ctx context.Context, username, password string, role entity.UserRole) (*entity.User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now().UTC(),
		},
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Wrap(err, apperror.KindConflict, "username already taken")
		}
		return nil, storeError(err, "create user")
	}

	return user, nil
}

func (s *authService) issue(user *entity.User) (*response.AuthResponse, error) {
	signed, expiresAt, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}
