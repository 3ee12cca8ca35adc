package usecase

import (
	"context"
	"time"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/infrastructure/metrics"
)

// DelinquencyUseCase implements the recurring sweep that flags newly-overdue
// installments. Built on the idempotent MarkDelinquent contract so the batch
// is safe to re-run after a partial failure.
type DelinquencyUseCase struct {
	mutator  loanMutator
	loanRepo LoanRepository
	metrics  *metrics.Metrics
}

// NewDelinquencyUseCase creates a new DelinquencyUseCase. retrier and metrics may be nil.
func NewDelinquencyUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *DelinquencyUseCase {
	return &DelinquencyUseCase{
		mutator: loanMutator{
			txManager:  txManager,
			loanRepo:   loanRepo,
			outboxRepo: outboxRepo,
			idGen:      idGen,
			retrier:    retrier,
		},
		loanRepo: loanRepo,
		metrics:  metrics,
	}
}

// SweepResult summarizes one delinquency sweep.
type SweepResult struct {
	LoansExamined      int
	InstallmentsMarked int
	FailedLoans        []string
}

// SweepDelinquencies marks every installment that is awaiting payment and
// past due as of the given date. Each loan mutates in its own transaction; a
// failure on one loan does not stop the sweep.
func (uc *DelinquencyUseCase) SweepDelinquencies(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	const batchSize = 200

	start := time.Now()
	result := &SweepResult{}

	loans, err := uc.loanRepo.ListOverdue(ctx, asOf, batchSize)
	if err != nil {
		return nil, err
	}

	for _, candidate := range loans {
		result.LoansExamined++

		marked := 0
		_, err := uc.mutator.mutate(ctx, candidate.ID, func(l *domain.Loan) ([]eventSpec, error) {
			// A retried attempt reloads the aggregate; its count starts over too.
			marked = 0
			var events []eventSpec
			for i := range l.Installments {
				inst := &l.Installments[i]
				if inst.State != domain.InstallmentAwaitingPayment || !asOf.After(inst.DueDate) {
					continue
				}

				if err := l.MarkDelinquent(inst.Number, asOf); err != nil {
					return nil, err
				}

				marked++
				events = append(events, eventSpec{
					eventType: domain.EventTypeInstallmentDelinquent,
					payload: domain.InstallmentDelinquentEvent{
						LoanID:            l.ID,
						InstallmentNumber: inst.Number,
						MarkedAt:          asOf.Format("2006-01-02"),
					},
				})
			}

			return events, nil
		})
		if err != nil {
			result.FailedLoans = append(result.FailedLoans, candidate.ID)
			continue
		}

		result.InstallmentsMarked += marked
	}

	if uc.metrics != nil {
		uc.metrics.DelinquenciesMarked.Add(float64(result.InstallmentsMarked))
		uc.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}
