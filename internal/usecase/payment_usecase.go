package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/infrastructure/metrics"
)

// PaymentUseCase handles installment-level ledger mutations: payments,
// delinquency marking and litigation escalation.
type PaymentUseCase struct {
	mutator   loanMutator
	auditRepo AuditRepository
	metrics   *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase. retrier and metrics may be nil.
func NewPaymentUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		mutator: loanMutator{
			txManager:  txManager,
			loanRepo:   loanRepo,
			outboxRepo: outboxRepo,
			idGen:      idGen,
			retrier:    retrier,
		},
		auditRepo: auditRepo,
		metrics:   metrics,
	}
}

// RecordPaymentInput represents input for recording an installment payment.
// AmountPaid is cents. Split, when set, overrides the default attribution of
// the payment to the scheduled principal and interest portions.
type RecordPaymentInput struct {
	LoanID            string
	InstallmentNumber int
	AmountPaid        decimal.Decimal
	Split             *domain.PaymentSplit
	ReceiptRef        string
	PaymentDate       time.Time
}

// RecordPayment books a payment against an installment and settles it,
// collecting any moratory interest accrued while delinquent.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (*domain.Loan, error) {
	if input.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.ValidateReceiptRef(input.ReceiptRef); err != nil {
		return nil, err
	}

	start := time.Now()

	loan, err := uc.mutator.mutate(ctx, input.LoanID, func(l *domain.Loan) ([]eventSpec, error) {
		inst, err := l.RecordPayment(input.InstallmentNumber, input.AmountPaid, input.Split, input.ReceiptRef, input.PaymentDate)
		if err != nil {
			return nil, err
		}

		events := []eventSpec{{
			eventType: domain.EventTypeInstallmentPaid,
			payload: domain.InstallmentPaidEvent{
				LoanID:            l.ID,
				InstallmentNumber: inst.Number,
				TotalPaidCents:    domain.Cents(inst.TotalPaid),
				MoratoryPaidCents: domain.Cents(inst.MoratoryPaid),
				ReceiptRef:        inst.ReceiptRef,
				LoanStatus:        string(l.Status),
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
		uc.metrics.PaymentsRecorded.Inc()
		uc.metrics.PaymentAmount.Observe(float64(domain.Cents(input.AmountPaid)))
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
		if loan.Status == domain.LoanLiquidated {
			uc.metrics.LoansLiquidated.Inc()
		}
	}

	uc.audit(ctx, domain.AuditActionLoanPayment, loan)

	return loan, nil
}

// MarkDelinquentInput represents input for flagging an overdue installment.
type MarkDelinquentInput struct {
	LoanID            string
	InstallmentNumber int
	AsOf              time.Time
}

// MarkDelinquent flags an installment as overdue and anchors moratory
// accrual at AsOf. Safe to re-run: an already-delinquent installment is left
// untouched.
func (uc *PaymentUseCase) MarkDelinquent(ctx context.Context, input MarkDelinquentInput) (*domain.Loan, error) {
	newlyMarked := false

	loan, err := uc.mutator.mutate(ctx, input.LoanID, func(l *domain.Loan) ([]eventSpec, error) {
		inst, err := l.Installment(input.InstallmentNumber)
		if err != nil {
			return nil, err
		}
		alreadyDelinquent := inst.State == domain.InstallmentDelinquent

		if err := l.MarkDelinquent(input.InstallmentNumber, input.AsOf); err != nil {
			return nil, err
		}

		if alreadyDelinquent {
			return nil, nil
		}
		newlyMarked = true

		return []eventSpec{{
			eventType: domain.EventTypeInstallmentDelinquent,
			payload: domain.InstallmentDelinquentEvent{
				LoanID:            l.ID,
				InstallmentNumber: input.InstallmentNumber,
				MarkedAt:          input.AsOf.Format("2006-01-02"),
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil && newlyMarked {
		uc.metrics.DelinquenciesMarked.Inc()
	}

	uc.audit(ctx, domain.AuditActionLoanMarkDelinquent, loan)

	return loan, nil
}

// MarkInLitigationInput represents input for escalating a delinquent
// installment into legal action.
type MarkInLitigationInput struct {
	LoanID            string
	InstallmentNumber int
	Notes             string
}

// MarkInLitigation escalates a delinquent installment. The loan status
// becomes Litigation and the loan closes to further mutation.
func (uc *PaymentUseCase) MarkInLitigation(ctx context.Context, input MarkInLitigationInput) (*domain.Loan, error) {
	loan, err := uc.mutator.mutate(ctx, input.LoanID, func(l *domain.Loan) ([]eventSpec, error) {
		if err := l.MarkInLitigation(input.InstallmentNumber, input.Notes); err != nil {
			return nil, err
		}

		return []eventSpec{{
			eventType: domain.EventTypeInstallmentLitigation,
			payload: domain.InstallmentLitigationEvent{
				LoanID:            l.ID,
				InstallmentNumber: input.InstallmentNumber,
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LitigationEscalations.Inc()
	}

	uc.audit(ctx, domain.AuditActionLoanLitigation, loan)

	return loan, nil
}

func (uc *PaymentUseCase) audit(ctx context.Context, action domain.AuditAction, loan *domain.Loan) {
	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		Action:       string(action),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		AfterState:   domain.MarshalState(loan),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
