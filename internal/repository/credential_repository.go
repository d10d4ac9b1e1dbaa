package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Account is an identity-provider credential record. It lives outside the
// hierarchy model: the engine only ever sees the durable subject id.
type Account struct {
	SubjectID    string
	Email        string
	PasswordHash string
	DisplayName  string
}

// CredentialRepository persists identity accounts.
type CredentialRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Create(ctx context.Context, account *Account) error {
	const query = `
        INSERT INTO accounts (subject_id, email, password_hash, display_name)
        VALUES ($1,$2,$3,$4)`
	_, err := r.pool.Exec(ctx, query,
		account.SubjectID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
	)
	return err
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
        SELECT subject_id, email, password_hash, display_name
        FROM accounts WHERE LOWER(email)=LOWER($1)`
	var account Account
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&account.SubjectID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
