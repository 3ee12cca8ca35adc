package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
	"github.com/bnp/financing/internal/usecase/mocks"
)

func TestMutationRetriesTransientSaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockLoanRepository()
	base := newStoredLoan(t, repo, "loan-001")

	// Each attempt must reload pristine state, as a rolled-back transaction
	// leaves the stored aggregate untouched.
	repo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
		clone := *base
		clone.Installments = append([]domain.Installment(nil), base.Installments...)
		return &clone, nil
	}

	saveCalls := 0
	transient := errors.New("deadlock detected")
	repo.SaveFunc = func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
		saveCalls++
		if saveCalls == 1 {
			return transient
		}
		repo.SaveFunc = nil
		return repo.Save(ctx, tx, loan)
	}

	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, operation func() error) error {
			if err := operation(); err != nil {
				return operation()
			}
			return nil
		},
	)

	uc := usecase.NewPaymentUseCase(
		mocks.NewMockTransactionManager(),
		repo,
		mocks.NewMockOutboxRepository(),
		mocks.NewMockAuditRepository(),
		mocks.NewMockIDGenerator(),
		retrier,
		nil,
	)

	loan, err := uc.RecordPayment(context.Background(), usecase.RecordPaymentInput{
		LoanID:            "loan-001",
		InstallmentNumber: 1,
		AmountPaid:        decimal.NewFromInt(107000),
		ReceiptRef:        "RCP-RETRY",
		PaymentDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected retried payment to succeed, got %v", err)
	}

	if saveCalls != 2 {
		t.Errorf("expected 2 save attempts, got %d", saveCalls)
	}
	if loan.Installments[0].State != domain.InstallmentPaid {
		t.Errorf("expected installment paid, got %q", loan.Installments[0].State)
	}
}

func TestMutationPermanentFailureIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockLoanRepository()
	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, operation func() error) error {
			return operation()
		},
	)

	uc := usecase.NewPaymentUseCase(
		mocks.NewMockTransactionManager(),
		repo,
		mocks.NewMockOutboxRepository(),
		mocks.NewMockAuditRepository(),
		mocks.NewMockIDGenerator(),
		retrier,
		nil,
	)

	_, err := uc.RecordPayment(context.Background(), usecase.RecordPaymentInput{
		LoanID:            "missing",
		InstallmentNumber: 1,
		AmountPaid:        decimal.NewFromInt(107000),
		ReceiptRef:        "RCP-MISSING",
		PaymentDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}
