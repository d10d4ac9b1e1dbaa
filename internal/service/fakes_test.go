package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/events"
	"github.com/spec-kit/lead-engine/internal/persistence"
)

func strPtr(s string) *string { return &s }

// fakeLeadRepo is an in-memory LeadRepository.
type fakeLeadRepo struct {
	mu      sync.Mutex
	nextID  int
	leads   map[string]domain.Lead
	updates int
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[string]domain.Lead{}}
}

func (r *fakeLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	lead.ID = fmt.Sprintf("lead-%d", r.nextID)
	r.leads[lead.ID] = *lead
	return nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.leads[lead.ID] = *lead
	r.updates++
	return nil
}

func (r *fakeLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := lead
	return &copied, nil
}

func (r *fakeLeadRepo) ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Lead
	for _, lead := range r.leads {
		result = append(result, lead)
	}
	return result, nil
}

func (r *fakeLeadRepo) SearchPayload(ctx context.Context, term string) ([]engine.PayloadCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []engine.PayloadCandidate
	for id, lead := range r.leads {
		raw, err := json.Marshal(lead.Payload)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(raw)), strings.ToLower(term)) {
			candidates = append(candidates, engine.PayloadCandidate{ID: id, Raw: raw})
		}
	}
	return candidates, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) add(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.nextID++
		user.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetBySubjectID(ctx context.Context, subjectID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.SubjectID == subjectID {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListWithPredicate(ctx context.Context, pred engine.Predicate, limit, offset int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

func (r *fakeUserRepo) ListByManager(ctx context.Context, managerID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.ManagerID != nil && *user.ManagerID == managerID {
			result = append(result, user)
		}
	}
	return result, nil
}

// fakeBranchRepo is an in-memory BranchRepository.
type fakeBranchRepo struct {
	mu       sync.Mutex
	nextID   int
	branches map[string]domain.Branch
}

func newFakeBranchRepo() *fakeBranchRepo {
	return &fakeBranchRepo{branches: map[string]domain.Branch{}}
}

func (r *fakeBranchRepo) add(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches[id] = domain.Branch{ID: id, Name: name, IsActive: true}
}

func (r *fakeBranchRepo) Create(ctx context.Context, branch *domain.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.branches {
		if strings.EqualFold(existing.Name, branch.Name) && existing.IsActive {
			return &engine.DuplicateError{Field: "name", Value: branch.Name}
		}
	}
	r.nextID++
	branch.ID = fmt.Sprintf("branch-%d", r.nextID)
	r.branches[branch.ID] = *branch
	return nil
}

func (r *fakeBranchRepo) Update(ctx context.Context, branch *domain.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.branches[branch.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.branches[branch.ID] = *branch
	return nil
}

func (r *fakeBranchRepo) GetByID(ctx context.Context, id string) (*domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	branch, ok := r.branches[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := branch
	return &copied, nil
}

func (r *fakeBranchRepo) List(ctx context.Context, includeInactive bool) ([]domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Branch
	for _, branch := range r.branches {
		if !includeInactive && !branch.IsActive {
			continue
		}
		result = append(result, branch)
	}
	return result, nil
}

// fakeCheckpointStore is an in-memory CascadeCheckpointStore.
type fakeCheckpointStore struct {
	mu      sync.Mutex
	pending map[string]persistence.CascadeCheckpoint
	saves   int
	clears  int
}

func newFakeCheckpointStore() *fakeCheckpointStore {
	return &fakeCheckpointStore{pending: map[string]persistence.CascadeCheckpoint{}}
}

func (s *fakeCheckpointStore) Save(ctx context.Context, checkpoint persistence.CascadeCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[checkpoint.ManagerID] = checkpoint
	s.saves++
	return nil
}

func (s *fakeCheckpointStore) Clear(ctx context.Context, managerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, managerID)
	s.clears++
	return nil
}

func (s *fakeCheckpointStore) ListPending(ctx context.Context) ([]persistence.CascadeCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []persistence.CascadeCheckpoint
	for _, checkpoint := range s.pending {
		result = append(result, checkpoint)
	}
	return result, nil
}

// fakeProvider is an in-memory identity.Provider.
type fakeProvider struct {
	mu       sync.Mutex
	nextID   int
	accounts map[string]string // email -> subject id
	password map[string]string // email -> password
	calls    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]string{}, password: map[string]string{}}
}

func (p *fakeProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if _, ok := p.accounts[email]; ok {
		return "", &engine.DuplicateError{Field: "email", Value: email}
	}
	p.nextID++
	subjectID := fmt.Sprintf("subject-%d", p.nextID)
	p.accounts[email] = subjectID
	p.password[email] = password
	return subjectID, nil
}

func (p *fakeProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjectID, ok := p.accounts[email]
	if !ok || p.password[email] != password {
		return "", fmt.Errorf("invalid credentials")
	}
	return subjectID, nil
}

// recordingDispatcher captures published audit events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.AuditEvent
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.AuditEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(action events.Action, handler events.EventHandler) {}

func (d *recordingDispatcher) byAction(action events.Action) []events.AuditEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.AuditEvent
	for _, event := range d.events {
		if event.Action == action {
			result = append(result, event)
		}
	}
	return result
}
