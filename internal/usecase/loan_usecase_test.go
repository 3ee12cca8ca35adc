package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
	"github.com/bnp/financing/internal/usecase/mocks"
)

// newStoredLoan plans a 600000 cent loan at 7% over 6 installments, activates
// it and seeds it into the repository.
func newStoredLoan(t *testing.T, repo *mocks.MockLoanRepository, id string) *domain.Loan {
	t.Helper()

	loan, err := domain.PlanLoan(
		domain.BeneficiaryRef{ID: "ben-001", DisplayName: "Maria Lopez"},
		decimal.NewFromInt(600000),
		decimal.NewFromInt(7),
		6,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("plan loan: %v", err)
	}
	loan.ID = id
	if err := loan.Activate(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	repo.Put(loan)

	return loan
}

func newLoanUseCase(
	repo *mocks.MockLoanRepository,
	outbox *mocks.MockOutboxRepository,
	audit *mocks.MockAuditRepository,
	directory *mocks.MockBeneficiaryDirectory,
) *usecase.LoanUseCase {
	return usecase.NewLoanUseCase(
		mocks.NewMockTransactionManager(),
		repo,
		outbox,
		audit,
		directory,
		mocks.NewMockIDGenerator(),
		nil,
		nil,
	)
}

func TestLoanUseCase_OriginateLoan(t *testing.T) {
	validInput := usecase.OriginateLoanInput{
		BeneficiaryID:      "ben-001",
		FinancedPrincipal:  decimal.NewFromInt(600000),
		AnnualInterestRate: decimal.NewFromInt(7),
		InstallmentCount:   6,
		FirstDueDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name        string
		input       usecase.OriginateLoanInput
		setupMocks  func(*mocks.MockLoanRepository, *mocks.MockBeneficiaryDirectory)
		expectError bool
		wantErr     error
	}{
		{
			name:  "successful origination",
			input: validInput,
			setupMocks: func(repo *mocks.MockLoanRepository, dir *mocks.MockBeneficiaryDirectory) {
				dir.Beneficiaries["ben-001"] = "Maria Lopez"
			},
		},
		{
			name:  "unknown beneficiary",
			input: validInput,
			setupMocks: func(repo *mocks.MockLoanRepository, dir *mocks.MockBeneficiaryDirectory) {
			},
			expectError: true,
			wantErr:     domain.ErrBeneficiaryNotFound,
		},
		{
			name: "non-positive principal",
			input: usecase.OriginateLoanInput{
				BeneficiaryID:      "ben-001",
				FinancedPrincipal:  decimal.Zero,
				AnnualInterestRate: decimal.NewFromInt(7),
				InstallmentCount:   6,
				FirstDueDate:       validInput.FirstDueDate,
			},
			setupMocks: func(repo *mocks.MockLoanRepository, dir *mocks.MockBeneficiaryDirectory) {
				dir.Beneficiaries["ben-001"] = "Maria Lopez"
			},
			expectError: true,
			wantErr:     domain.ErrInvalidPrincipal,
		},
		{
			name: "zero installment count",
			input: usecase.OriginateLoanInput{
				BeneficiaryID:      "ben-001",
				FinancedPrincipal:  decimal.NewFromInt(600000),
				AnnualInterestRate: decimal.NewFromInt(7),
				InstallmentCount:   0,
				FirstDueDate:       validInput.FirstDueDate,
			},
			setupMocks: func(repo *mocks.MockLoanRepository, dir *mocks.MockBeneficiaryDirectory) {
				dir.Beneficiaries["ben-001"] = "Maria Lopez"
			},
			expectError: true,
			wantErr:     domain.ErrInvalidInstallmentCount,
		},
		{
			name:  "repository failure",
			input: validInput,
			setupMocks: func(repo *mocks.MockLoanRepository, dir *mocks.MockBeneficiaryDirectory) {
				dir.Beneficiaries["ben-001"] = "Maria Lopez"
				repo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
					return errors.New("connection reset")
				}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockLoanRepository()
			outbox := mocks.NewMockOutboxRepository()
			audit := mocks.NewMockAuditRepository()
			directory := mocks.NewMockBeneficiaryDirectory()
			tt.setupMocks(repo, directory)

			uc := newLoanUseCase(repo, outbox, audit, directory)
			loan, err := uc.OriginateLoan(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loan.ID == "" {
				t.Error("expected generated loan ID")
			}
			if loan.Status != domain.LoanPending {
				t.Errorf("expected pending status, got %s", loan.Status)
			}
			if loan.Beneficiary.DisplayName != "Maria Lopez" {
				t.Errorf("expected resolved beneficiary name, got %q", loan.Beneficiary.DisplayName)
			}

			if len(outbox.Events) != 1 {
				t.Fatalf("expected 1 outbox event, got %d", len(outbox.Events))
			}
			if outbox.Events[0].EventType != domain.EventTypeLoanOriginated {
				t.Errorf("expected %s event, got %s", domain.EventTypeLoanOriginated, outbox.Events[0].EventType)
			}
			if len(audit.Logs) != 1 {
				t.Fatalf("expected 1 audit entry, got %d", len(audit.Logs))
			}
			if audit.Logs[0].Action != string(domain.AuditActionLoanOriginate) {
				t.Errorf("unexpected audit action %s", audit.Logs[0].Action)
			}
		})
	}
}

func TestLoanUseCase_GetLoan(t *testing.T) {
	repo := mocks.NewMockLoanRepository()
	uc := newLoanUseCase(repo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())

	stored := newStoredLoan(t, repo, "loan-001")

	loan, err := uc.GetLoan(context.Background(), "loan-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loan.ID != stored.ID {
		t.Errorf("expected loan %s, got %s", stored.ID, loan.ID)
	}

	if _, err := uc.GetLoan(context.Background(), "missing"); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestLoanUseCase_ListInstallments(t *testing.T) {
	repo := mocks.NewMockLoanRepository()
	uc := newLoanUseCase(repo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())

	newStoredLoan(t, repo, "loan-001")

	installments, err := uc.ListInstallments(context.Background(), "loan-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(installments) != 6 {
		t.Fatalf("expected 6 installments, got %d", len(installments))
	}
	for i, inst := range installments {
		if inst.Number != i+1 {
			t.Errorf("installment %d: expected number %d, got %d", i, i+1, inst.Number)
		}
	}

	if _, err := uc.ListInstallments(context.Background(), "missing"); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestLoanUseCase_ActivateLoan(t *testing.T) {
	repo := mocks.NewMockLoanRepository()
	outbox := mocks.NewMockOutboxRepository()
	uc := newLoanUseCase(repo, outbox, mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())

	planned, err := domain.PlanLoan(
		domain.BeneficiaryRef{ID: "ben-001", DisplayName: "Maria Lopez"},
		decimal.NewFromInt(600000),
		decimal.NewFromInt(7),
		6,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("plan loan: %v", err)
	}
	planned.ID = "loan-001"
	repo.Put(planned)

	loan, err := uc.ActivateLoan(context.Background(), "loan-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loan.Status != domain.LoanActive {
		t.Errorf("expected active status, got %s", loan.Status)
	}
	if len(outbox.Events) != 1 || outbox.Events[0].EventType != domain.EventTypeLoanActivated {
		t.Errorf("expected a single %s event", domain.EventTypeLoanActivated)
	}

	// Activating twice is an invalid transition and must not emit again.
	if _, err := uc.ActivateLoan(context.Background(), "loan-001"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if len(outbox.Events) != 1 {
		t.Errorf("expected no event on failed activation, got %d", len(outbox.Events))
	}
}

func TestLoanUseCase_NormalizeLoan(t *testing.T) {
	repo := mocks.NewMockLoanRepository()
	uc := newLoanUseCase(repo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())

	loan := newStoredLoan(t, repo, "loan-001")

	normalized, err := uc.NormalizeLoan(context.Background(), "loan-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if normalized.Status != domain.LoanNormalized {
		t.Errorf("expected normalized status, got %s", normalized.Status)
	}

	// A loan with a delinquent installment cannot be normalized.
	delinquent := newStoredLoan(t, repo, "loan-002")
	if err := delinquent.MarkDelinquent(1, loan.Installments[0].DueDate.AddDate(0, 0, 5)); err != nil {
		t.Fatalf("mark delinquent: %v", err)
	}
	if _, err := uc.NormalizeLoan(context.Background(), "loan-002"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLoanUseCase_CancelLoan(t *testing.T) {
	tests := []struct {
		name       string
		withRefund bool
		expect     domain.LoanStatus
	}{
		{name: "cancel with refund", withRefund: true, expect: domain.LoanCancelledWithRefund},
		{name: "cancel without refund", withRefund: false, expect: domain.LoanCancelledNoRefund},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockLoanRepository()
			uc := newLoanUseCase(repo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())
			newStoredLoan(t, repo, "loan-001")

			loan, err := uc.CancelLoan(context.Background(), "loan-001", tt.withRefund)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loan.Status != tt.expect {
				t.Errorf("expected %s, got %s", tt.expect, loan.Status)
			}

			// The loan is now closed to further mutation.
			if _, err := uc.CancelLoan(context.Background(), "loan-001", tt.withRefund); !errors.Is(err, domain.ErrLoanClosed) {
				t.Errorf("expected ErrLoanClosed, got %v", err)
			}
		})
	}
}

func TestLoanUseCase_CheckScheduleConsistency(t *testing.T) {
	repo := mocks.NewMockLoanRepository()
	uc := newLoanUseCase(repo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository(), mocks.NewMockBeneficiaryDirectory())

	newStoredLoan(t, repo, "loan-001")
	corrupted := newStoredLoan(t, repo, "loan-002")
	corrupted.Installments[2].PrincipalPortion = corrupted.Installments[2].PrincipalPortion.Add(decimal.NewFromInt(1))

	report, err := uc.CheckScheduleConsistency(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.LoansChecked != 2 {
		t.Errorf("expected 2 loans checked, got %d", report.LoansChecked)
	}
	if report.Consistent() {
		t.Error("expected report to flag the corrupted schedule")
	}
	if len(report.InconsistentLoans) != 1 || report.InconsistentLoans[0] != "loan-002" {
		t.Errorf("expected loan-002 flagged, got %v", report.InconsistentLoans)
	}
}
