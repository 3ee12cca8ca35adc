package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// MockLoanRepository is a mock implementation of LoanRepository backed by an
// in-memory map. Any Func field overrides the default behavior.
type MockLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]*domain.Loan

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	SaveFunc             func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Loan, error)
	ListOverdueFunc      func(ctx context.Context, asOf time.Time, limit int) ([]*domain.Loan, error)
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{loans: make(map[string]*domain.Loan)}
}

// Put seeds the repository with a loan.
func (m *MockLoanRepository) Put(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
}

func (m *MockLoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	loan, ok := m.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) Save(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	loan.Version++
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) List(ctx context.Context, limit, offset int) ([]*domain.Loan, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	loans := make([]*domain.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		loans = append(loans, l)
	}
	return loans, nil
}

func (m *MockLoanRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Loan, error) {
	if m.ListOverdueFunc != nil {
		return m.ListOverdueFunc(ctx, asOf, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var loans []*domain.Loan
	for _, l := range m.loans {
		if l.IsClosed() {
			continue
		}
		next := l.NextUnpaidDueDate()
		if next != nil && asOf.After(*next) {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

// MockTransaction is a no-op transaction recording commit/rollback calls.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.RolledBack = true
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu           sync.Mutex
	Transactions []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.Transactions = append(m.Transactions, tx)
	m.mu.Unlock()
	return tx, nil
}

// MockIDGenerator returns sequential IDs unless overridden.
type MockIDGenerator struct {
	GenerateFunc func() string

	mu   sync.Mutex
	next int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%06d", m.next)
}

// MockOutboxRepository records created events in memory.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			unpublished = append(unpublished, e)
		}
		if len(unpublished) == limit {
			break
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// MockAuditRepository records audit logs in memory.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog

	CreateFunc func(ctx context.Context, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Logs, nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var logs []*domain.AuditLog
	for _, l := range m.Logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

// MockBeneficiaryDirectory resolves beneficiaries from a fixed map.
type MockBeneficiaryDirectory struct {
	Beneficiaries map[string]string // id -> display name

	LookupFunc func(ctx context.Context, id string) (*domain.BeneficiaryRef, error)
}

func NewMockBeneficiaryDirectory() *MockBeneficiaryDirectory {
	return &MockBeneficiaryDirectory{Beneficiaries: make(map[string]string)}
}

func (m *MockBeneficiaryDirectory) Lookup(ctx context.Context, id string) (*domain.BeneficiaryRef, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, id)
	}
	name, ok := m.Beneficiaries[id]
	if !ok {
		return nil, domain.ErrBeneficiaryNotFound
	}
	return &domain.BeneficiaryRef{ID: id, DisplayName: name}, nil
}
