package usecase

import (
	"context"
	"time"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/infrastructure/metrics"
)

// PayoffUseCase handles early-payoff quotes and settlements. Quoting is
// read-only and may run concurrently; applying re-validates against the
// locked aggregate so a stale preview can never be committed.
type PayoffUseCase struct {
	mutator   loanMutator
	loanRepo  LoanRepository
	auditRepo AuditRepository
	metrics   *metrics.Metrics
}

// NewPayoffUseCase creates a new PayoffUseCase. retrier and metrics may be nil.
func NewPayoffUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PayoffUseCase {
	return &PayoffUseCase{
		mutator: loanMutator{
			txManager:  txManager,
			loanRepo:   loanRepo,
			outboxRepo: outboxRepo,
			idGen:      idGen,
			retrier:    retrier,
		},
		loanRepo:  loanRepo,
		auditRepo: auditRepo,
		metrics:   metrics,
	}
}

// ComputeEarlyPayoff quotes a settlement through the given installment
// number against a lock-free snapshot of the loan.
func (uc *PayoffUseCase) ComputeEarlyPayoff(ctx context.Context, loanID string, throughInstallmentNumber int) (*domain.EarlyPayoffRecord, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return domain.ComputeEarlyPayoff(loan, throughInstallmentNumber)
}

// ApplyEarlyPayoffInput represents input for committing an early payoff.
type ApplyEarlyPayoffInput struct {
	LoanID                   string
	ThroughInstallmentNumber int
	ReceiptRef               string
	Notes                    string
}

// ApplyEarlyPayoff settles every unpaid installment through the chosen
// number. The settlement record is recomputed inside the transaction.
func (uc *PayoffUseCase) ApplyEarlyPayoff(ctx context.Context, input ApplyEarlyPayoffInput) (*domain.Loan, error) {
	if err := domain.ValidateReceiptRef(input.ReceiptRef); err != nil {
		return nil, err
	}

	loan, err := uc.mutator.mutate(ctx, input.LoanID, func(l *domain.Loan) ([]eventSpec, error) {
		record, err := l.ApplyEarlyPayoff(input.ThroughInstallmentNumber, input.ReceiptRef, input.Notes, time.Now().UTC())
		if err != nil {
			return nil, err
		}

		events := []eventSpec{{
			eventType: domain.EventTypeEarlyPayoffApplied,
			payload: domain.EarlyPayoffAppliedEvent{
				LoanID:                l.ID,
				ThroughInstallment:    record.ThroughInstallmentNumber,
				FinalAmountDueCents:   domain.Cents(record.FinalAmountDue),
				InterestForgivenCents: domain.Cents(record.InterestForgiven),
				ReceiptRef:            record.ReceiptRef,
				LoanStatus:            string(l.Status),
			},
		}}

		if l.Status == domain.LoanLiquidated {
			events = append(events, eventSpec{
				eventType: domain.EventTypeLoanLiquidated,
				payload:   domain.LoanStatusChangedEvent{LoanID: l.ID, Status: string(l.Status)},
			})
		}

		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EarlyPayoffsApplied.Inc()
		if loan.Status == domain.LoanLiquidated {
			uc.metrics.LoansLiquidated.Inc()
		}
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		Action:       string(domain.AuditActionLoanPayoffApply),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		AfterState:   domain.MarshalState(loan),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})

	return loan, nil
}
