package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/repository"
)

// Provider creates durable identity accounts for hierarchy users. The
// engine calls CreateAccount exactly once per subordinate creation,
// strictly after branch validation has succeeded.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// LocalProvider is a credentials-table-backed Provider.
type LocalProvider struct {
	creds      repository.CredentialRepository
	bcryptCost int
}

// NewLocalProvider constructs the provider.
func NewLocalProvider(creds repository.CredentialRepository, bcryptCost int) *LocalProvider {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{creds: creds, bcryptCost: bcryptCost}
}

// CreateAccount registers credentials and returns the external subject id.
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", &engine.ValidationError{Field: "credentials", Reason: "email and password required"}
	}

	if existing, err := p.creds.GetByEmail(ctx, email); err == nil && existing != nil {
		return "", &engine.DuplicateError{Field: "email", Value: email}
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	hash, err := HashPassword(password, p.bcryptCost)
	if err != nil {
		return "", err
	}

	account := &repository.Account{
		SubjectID:    uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := p.creds.Create(ctx, account); err != nil {
		return "", err
	}
	return account.SubjectID, nil
}

// Authenticate verifies credentials and returns the subject id.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := ComparePassword(account.PasswordHash, password); err != nil {
		return "", errors.New("invalid credentials")
	}
	return account.SubjectID, nil
}
