package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletpay/walletpay/internal/store"
)

// Repository persists users.
type Repository interface {
	FindByDocumentNumber(ctx context.Context, doc DocumentNumber) (User, error)
	ExistsByDocumentNumber(ctx context.Context, doc DocumentNumber) (bool, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, user User) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Create inserts a new user. A concurrent insert of the same document number
// surfaces as ErrDocumentNumberInUse.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = store.Conn(ctx, r.db).Exec(ctx, `INSERT INTO users (id, name, email, password_hash, document_number, type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, user.Name, user.Email, user.PasswordHash, user.Document.String(), string(user.Type), user.CreatedAt.UTC())
	return translateInsertError(err)
}

func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDocumentNumberInUse, pgErr.ConstraintName)
	}
	return err
}

// FindByDocumentNumber fetches a user by its normalized document number.
func (r *PostgresRepository) FindByDocumentNumber(ctx context.Context, doc DocumentNumber) (User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT id, name, email, password_hash, document_number, type, created_at
        FROM users WHERE document_number = $1`, doc.String())
	var (
		id        uuid.UUID
		rawDoc    string
		rawType   string
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Name, &user.Email, &user.PasswordHash, &rawDoc, &rawType, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.Type = UserType(rawType)
	user.CreatedAt = createdAt.UTC()
	parsed, err := ParseDocumentNumber(rawDoc, user.Type)
	if err != nil {
		return User{}, fmt.Errorf("stored user %s: %w", user.ID, err)
	}
	user.Document = parsed
	return user, nil
}

// ExistsByDocumentNumber reports whether a user already holds doc.
func (r *PostgresRepository) ExistsByDocumentNumber(ctx context.Context, doc DocumentNumber) (bool, error) {
	var exists bool
	err := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE document_number = $1)`, doc.String()).Scan(&exists)
	return exists, err
}

// ExistsByID reports whether a user with id exists.
func (r *PostgresRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = store.Conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}
