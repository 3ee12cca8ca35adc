package usecase

import (
	"context"
	"time"

	"github.com/bnp/financing/internal/domain"
)

// loanMutator runs a mutation against one loan aggregate under the
// single-writer discipline: lock the row, apply the domain operation, write
// any outbox events, save with the loaded version, commit. A failed
// operation rolls back and leaves the persisted aggregate untouched.
type loanMutator struct {
	txManager  TransactionManager
	loanRepo   LoanRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	retrier    Retrier
}

// eventSpec is an outbox event pending an ID and timestamp.
type eventSpec struct {
	eventType string
	payload   any
}

// mutate applies op to the loan, retrying the whole transaction on transient
// persistence failures when a retrier is configured. Every attempt reloads
// the aggregate, so op must be a pure function of the loan state.
func (m *loanMutator) mutate(ctx context.Context, loanID string, op func(*domain.Loan) ([]eventSpec, error)) (*domain.Loan, error) {
	if m.retrier == nil {
		return m.mutateOnce(ctx, loanID, op)
	}

	var loan *domain.Loan
	err := m.retrier.Retry(ctx, func() error {
		var opErr error
		loan, opErr = m.mutateOnce(ctx, loanID, op)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

func (m *loanMutator) mutateOnce(ctx context.Context, loanID string, op func(*domain.Loan) ([]eventSpec, error)) (*domain.Loan, error) {
	tx, err := m.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := m.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	events, err := op(loan)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan.UpdatedAt = now

	if err := m.loanRepo.Save(ctx, tx, loan); err != nil {
		return nil, err
	}

	for _, spec := range events {
		event := &domain.OutboxEvent{
			ID:            m.idGen.Generate(),
			AggregateID:   loan.ID,
			AggregateType: domain.AggregateTypeLoan,
			EventType:     spec.eventType,
			Payload:       domain.MarshalState(spec.payload),
			CreatedAt:     now,
		}
		if err := m.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return loan, nil
}
