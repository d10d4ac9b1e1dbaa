package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
)

// userColumns maps engine predicate fields onto user storage columns.
var userColumns = map[string]string{
	engine.FieldID:        "id",
	engine.FieldBranchIDs: "branch_ids",
}

// UserRepository defines persistence access for hierarchy accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.User, error)
	ListByManager(ctx context.Context, managerID string) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelectColumns = `id, subject_id, name, email, role, manager_id, team_lead_id, branch_ids, grants, active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	grants, err := json.Marshal(user.Grants)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO users (subject_id, name, email, role, manager_id, team_lead_id, branch_ids, grants, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.SubjectID,
		user.Name,
		user.Email,
		user.Role,
		user.ManagerID,
		user.TeamLeadID,
		user.BranchIDs,
		grants,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	grants, err := json.Marshal(user.Grants)
	if err != nil {
		return err
	}
	const query = `
        UPDATE users SET name=$1, email=$2, branch_ids=$3, grants=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.BranchIDs,
		grants,
		user.Active,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userSelectColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetBySubjectID(ctx context.Context, subjectID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE subject_id=$1`, userSelectColumns)
	return scanUser(r.pool.QueryRow(ctx, query, subjectID))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email)=LOWER($1)`, userSelectColumns)
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.User, error) {
	args := []any{}
	where := buildPredicateSQL(pred, userColumns, &args)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		userSelectColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListByManager returns every account linked to the manager through its
// back-reference: team leads directly, and agents transitively (an agent's
// manager_id is its team lead's manager).
func (r *userRepository) ListByManager(ctx context.Context, managerID string) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE manager_id=$1 ORDER BY created_at ASC`, userSelectColumns)
	rows, err := r.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var grants []byte
	if err := row.Scan(
		&user.ID,
		&user.SubjectID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ManagerID,
		&user.TeamLeadID,
		&user.BranchIDs,
		&grants,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(grants) > 0 {
		if err := json.Unmarshal(grants, &user.Grants); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}
