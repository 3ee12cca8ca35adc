package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/tests/testutil"
)

func TestDelinquencySweep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, ctx, testDB)

	// Installments 1 and 2 are past due as of today, installment 3 is not.
	today := time.Now().UTC()
	firstDue := today.AddDate(0, -1, -15)
	overdueLoan := testDB.CreateTestLoan(ctx, 6, firstDue)

	// A current loan the sweep must not touch.
	currentLoan := testDB.CreateTestLoan(ctx, 6, today.AddDate(0, 1, 0))

	t.Run("sweep marks overdue installments", func(t *testing.T) {
		req := dto.SweepDelinquenciesRequest{AsOf: dto.NewDate(today)}

		w := stack.do(t, http.MethodPost, "/api/v1/delinquency/sweep", req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.SweepResponse
		decodeResponse(t, w, &resp)

		if resp.LoansExamined != 1 {
			t.Errorf("expected 1 loan examined, got %d", resp.LoansExamined)
		}
		if resp.InstallmentsMarked != 2 {
			t.Errorf("expected 2 installments marked, got %d", resp.InstallmentsMarked)
		}
		if len(resp.FailedLoans) != 0 {
			t.Errorf("expected no failed loans, got %v", resp.FailedLoans)
		}
	})

	t.Run("marked installments carry the sweep date", func(t *testing.T) {
		stored, err := stack.loanRepo.GetByID(ctx, overdueLoan.ID)
		if err != nil {
			t.Fatalf("failed to reload loan: %v", err)
		}

		for _, inst := range stored.Installments[:2] {
			if inst.State != domain.InstallmentDelinquent {
				t.Errorf("installment %d: expected delinquent, got %q", inst.Number, inst.State)
			}
			if inst.MarkedDelinquentAt == nil {
				t.Errorf("installment %d: expected a delinquency anchor", inst.Number)
			}
		}
		for _, inst := range stored.Installments[2:] {
			if inst.State != domain.InstallmentAwaitingPayment {
				t.Errorf("installment %d: expected awaiting_payment, got %q", inst.Number, inst.State)
			}
		}
	})

	t.Run("current loan is untouched", func(t *testing.T) {
		stored, err := stack.loanRepo.GetByID(ctx, currentLoan.ID)
		if err != nil {
			t.Fatalf("failed to reload loan: %v", err)
		}

		for _, inst := range stored.Installments {
			if inst.State != domain.InstallmentAwaitingPayment {
				t.Errorf("installment %d: expected awaiting_payment, got %q", inst.Number, inst.State)
			}
		}
	})

	t.Run("repeat sweep is a no-op", func(t *testing.T) {
		req := dto.SweepDelinquenciesRequest{AsOf: dto.NewDate(today)}

		w := stack.do(t, http.MethodPost, "/api/v1/delinquency/sweep", req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.SweepResponse
		decodeResponse(t, w, &resp)

		if resp.InstallmentsMarked != 0 {
			t.Errorf("expected 0 installments marked, got %d", resp.InstallmentsMarked)
		}
	})

	t.Run("sweep emits delinquency events", func(t *testing.T) {
		events, err := stack.outboxRepo.GetByAggregate(ctx, "loan", overdueLoan.ID, 50, 0)
		if err != nil {
			t.Fatalf("failed to load outbox events: %v", err)
		}

		marked := 0
		for _, event := range events {
			if event.EventType == domain.EventTypeInstallmentDelinquent {
				marked++
			}
		}
		if marked != 2 {
			t.Errorf("expected 2 %s events, got %d", domain.EventTypeInstallmentDelinquent, marked)
		}
	})
}
