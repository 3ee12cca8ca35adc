package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/infrastructure/metrics"
)

// LoanUseCase handles loan origination and loan-level status transitions.
type LoanUseCase struct {
	mutator   loanMutator
	loanRepo  LoanRepository
	auditRepo AuditRepository
	directory BeneficiaryDirectory
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewLoanUseCase creates a new LoanUseCase. retrier and metrics may be nil.
func NewLoanUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	directory BeneficiaryDirectory,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *LoanUseCase {
	return &LoanUseCase{
		mutator: loanMutator{
			txManager:  txManager,
			loanRepo:   loanRepo,
			outboxRepo: outboxRepo,
			idGen:      idGen,
			retrier:    retrier,
		},
		loanRepo:  loanRepo,
		auditRepo: auditRepo,
		directory: directory,
		idGen:     idGen,
		metrics:   metrics,
	}
}

// OriginateLoanInput represents input for originating a loan. Amounts are
// cents, the rate is a flat annual percentage.
type OriginateLoanInput struct {
	BeneficiaryID      string
	FinancedPrincipal  decimal.Decimal
	AnnualInterestRate decimal.Decimal
	InstallmentCount   int
	FirstDueDate       time.Time
}

// OriginateLoan plans the amortization schedule for a financed down-payment
// and persists the new aggregate in Pending status.
func (uc *LoanUseCase) OriginateLoan(ctx context.Context, input OriginateLoanInput) (*domain.Loan, error) {
	if err := domain.ValidatePrincipal(input.FinancedPrincipal); err != nil {
		return nil, err
	}
	if err := domain.ValidateInterestRate(input.AnnualInterestRate); err != nil {
		return nil, err
	}
	if err := domain.ValidateInstallmentCount(input.InstallmentCount); err != nil {
		return nil, err
	}

	beneficiary, err := uc.directory.Lookup(ctx, input.BeneficiaryID)
	if err != nil {
		return nil, err
	}

	loan, err := domain.PlanLoan(*beneficiary, input.FinancedPrincipal, input.AnnualInterestRate, input.InstallmentCount, input.FirstDueDate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan.ID = uc.idGen.Generate()
	loan.CreatedAt = now
	loan.UpdatedAt = now

	tx, err := uc.mutator.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.loanRepo.Create(ctx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanOriginated,
		Payload: domain.MarshalState(domain.LoanOriginatedEvent{
			LoanID:                 loan.ID,
			BeneficiaryID:          loan.Beneficiary.ID,
			FinancedPrincipalCents: domain.Cents(loan.FinancedPrincipal),
			TotalInterestCents:     domain.Cents(loan.TotalInterest),
			InstallmentCount:       loan.InstallmentCount,
			FirstDueDate:           loan.Installments[0].DueDate.Format("2006-01-02"),
		}),
		CreatedAt: now,
	}
	if err := uc.mutator.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansOriginated.Inc()
	}

	uc.audit(ctx, domain.AuditActionLoanOriginate, loan.ID, nil, loan)

	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// ListInstallments returns the full schedule of a loan.
func (uc *LoanUseCase) ListInstallments(ctx context.Context, loanID string) ([]domain.Installment, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return loan.Installments, nil
}

// ListLoansInput represents input for listing loans.
type ListLoansInput struct {
	Limit  int
	Offset int
}

// ListLoans lists loans with pagination.
func (uc *LoanUseCase) ListLoans(ctx context.Context, input ListLoansInput) ([]*domain.Loan, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.loanRepo.List(ctx, limit, offset)
}

// ActivateLoan moves a pending loan into repayment once the beneficiary's own
// down-payment share is confirmed.
func (uc *LoanUseCase) ActivateLoan(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := uc.mutator.mutate(ctx, id, func(l *domain.Loan) ([]eventSpec, error) {
		if err := l.Activate(); err != nil {
			return nil, err
		}

		return []eventSpec{{
			eventType: domain.EventTypeLoanActivated,
			payload:   domain.LoanStatusChangedEvent{LoanID: l.ID, Status: string(l.Status)},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionLoanActivate, id, nil, loan)

	return loan, nil
}

// NormalizeLoan records that a previously delinquent loan has been brought
// fully current. Explicit administrative step.
func (uc *LoanUseCase) NormalizeLoan(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := uc.mutator.mutate(ctx, id, func(l *domain.Loan) ([]eventSpec, error) {
		if err := l.Normalize(); err != nil {
			return nil, err
		}

		return []eventSpec{{
			eventType: domain.EventTypeLoanNormalized,
			payload:   domain.LoanStatusChangedEvent{LoanID: l.ID, Status: string(l.Status)},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionLoanNormalize, id, nil, loan)

	return loan, nil
}

// CancelLoan terminates the loan on contract cancellation.
func (uc *LoanUseCase) CancelLoan(ctx context.Context, id string, withRefund bool) (*domain.Loan, error) {
	loan, err := uc.mutator.mutate(ctx, id, func(l *domain.Loan) ([]eventSpec, error) {
		if err := l.Cancel(withRefund); err != nil {
			return nil, err
		}

		return []eventSpec{{
			eventType: domain.EventTypeLoanCancelled,
			payload:   domain.LoanStatusChangedEvent{LoanID: l.ID, Status: string(l.Status)},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionLoanCancel, id, nil, loan)

	return loan, nil
}

// ConsistencyReport summarizes a schedule invariant sweep across all loans.
type ConsistencyReport struct {
	LoansChecked      int
	InconsistentLoans []string
	CheckedAt         time.Time
}

// Consistent reports whether every checked schedule summed back to its
// origination totals.
func (r *ConsistencyReport) Consistent() bool {
	return len(r.InconsistentLoans) == 0
}

// CheckScheduleConsistency verifies the amortization invariants for every
// persisted loan: principal portions sum to the financed principal, interest
// portions to the frozen total interest.
func (uc *LoanUseCase) CheckScheduleConsistency(ctx context.Context) (*ConsistencyReport, error) {
	report := &ConsistencyReport{CheckedAt: time.Now().UTC()}

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		loans, err := uc.loanRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, loan := range loans {
			report.LoansChecked++
			if err := loan.CheckScheduleInvariants(); err != nil {
				report.InconsistentLoans = append(report.InconsistentLoans, loan.ID)
			}
		}

		if len(loans) < pageSize {
			break
		}
	}

	return report, nil
}

// audit writes a best-effort audit entry. Audit failures never fail the
// underlying operation.
func (uc *LoanUseCase) audit(ctx context.Context, action domain.AuditAction, loanID string, before, after *domain.Loan) {
	log := &domain.AuditLog{
		Action:       string(action),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loanID,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	if before != nil {
		log.BeforeState = domain.MarshalState(before)
	}
	if after != nil {
		log.AfterState = domain.MarshalState(after)
	}

	_ = uc.auditRepo.Create(ctx, log)
}
