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

// leadColumns maps engine predicate fields onto lead storage columns.
var leadColumns = map[string]string{
	engine.FieldID:         "id",
	engine.FieldOwnerID:    "owner_id",
	engine.FieldAssignedTo: "assigned_to",
	engine.FieldBranchID:   "branch_id",
}

// LeadRepository encapsulates lead document persistence. Updates always
// write the full grant set alongside the business fields in a single
// statement, so no intermediate state can expose a stale grant next to a
// new one.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.Lead, error)
	SearchPayload(ctx context.Context, term string) ([]engine.PayloadCandidate, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	payload, grants, err := encodeLeadDocuments(lead)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO leads (payload, status, owner_id, assigned_to, branch_id, is_closed, closed_at, grants)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		payload,
		lead.Status,
		lead.OwnerID,
		lead.AssignedToID,
		lead.BranchID,
		lead.IsClosed,
		lead.ClosedAt,
		grants,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	payload, grants, err := encodeLeadDocuments(lead)
	if err != nil {
		return err
	}
	const query = `
        UPDATE leads SET payload=$1, status=$2, assigned_to=$3, branch_id=$4,
            is_closed=$5, closed_at=$6, grants=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		payload,
		lead.Status,
		lead.AssignedToID,
		lead.BranchID,
		lead.IsClosed,
		lead.ClosedAt,
		grants,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	const query = `
        SELECT id, payload, status, owner_id, assigned_to, branch_id, is_closed, closed_at, grants, created_at, updated_at
        FROM leads WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanLead(row)
}

func (r *leadRepository) ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.Lead, error) {
	args := []any{}
	where := buildPredicateSQL(pred, leadColumns, &args)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, payload, status, owner_id, assigned_to, branch_id, is_closed, closed_at, grants, created_at, updated_at
        FROM leads WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lead)
	}
	return result, rows.Err()
}

// SearchPayload narrows duplicate candidates with a coarse containment
// query over the raw payload text. Exact verification of the decoded
// payload stays with the caller.
func (r *leadRepository) SearchPayload(ctx context.Context, term string) ([]engine.PayloadCandidate, error) {
	const query = `SELECT id, payload FROM leads WHERE payload::text ILIKE '%' || $1 || '%'`
	rows, err := r.pool.Query(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []engine.PayloadCandidate
	for rows.Next() {
		var candidate engine.PayloadCandidate
		if err := rows.Scan(&candidate.ID, &candidate.Raw); err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var lead domain.Lead
	var payload, grants []byte
	if err := row.Scan(
		&lead.ID,
		&payload,
		&lead.Status,
		&lead.OwnerID,
		&lead.AssignedToID,
		&lead.BranchID,
		&lead.IsClosed,
		&lead.ClosedAt,
		&grants,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &lead.Payload); err != nil {
			// Payloads are caller-owned and may be malformed; surface the
			// record with an empty payload rather than failing the read.
			lead.Payload = nil
		}
	}
	if len(grants) > 0 {
		if err := json.Unmarshal(grants, &lead.Grants); err != nil {
			return nil, err
		}
	}
	return &lead, nil
}

func encodeLeadDocuments(lead *domain.Lead) ([]byte, []byte, error) {
	payload, err := json.Marshal(lead.Payload)
	if err != nil {
		return nil, nil, err
	}
	grants, err := json.Marshal(lead.Grants)
	if err != nil {
		return nil, nil, err
	}
	return payload, grants, nil
}
