package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	// Inserts referencing the user wait for that lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	// Delete removes the user; reviews and likes go with it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewUserRepository(db database.DBTX, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", user.Username, ErrDuplicate)
	}
	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}

	return nil
}

const userByIDQuery = `
	SELECT id, username, password_hash, role, created_at
	FROM users
	WHERE id = $1
`

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := scanUser(ur.db.QueryRow(ctx, userByIDQuery, id))
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := scanUser(ur.db.QueryRow(ctx, userByIDQuery+" FOR UPDATE", id))
	if err != nil {
		ur.log.Error("Failed to lock user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("lock user %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, username))
	if err != nil {
		ur.log.Error("Failed to find user by username",
			zap.Error(err),
			zap.String("username", username),
		)
		return nil, fmt.Errorf("find user by username %s: %w", username, err)
	}

	return user, nil
}

func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := ur.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user %s: %w", id.String(), ErrRecordNotFound)
	}

	ur.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// scanUser returns nil, nil when the row does not exist.
func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
