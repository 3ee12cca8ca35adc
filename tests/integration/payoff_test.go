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

func TestEarlyPayoff(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, ctx, testDB)

	firstDue := time.Now().UTC().AddDate(0, 1, 0)
	loan := testDB.CreateTestLoan(ctx, 6, firstDue)

	for number := 1; number <= 2; number++ {
		req := dto.RecordPaymentRequest{
			InstallmentNumber: number,
			AmountPaidCents:   107000,
			ReceiptRef:        "rcpt-early",
		}
		w := stack.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/payments", req)
		if w.Code != http.StatusOK {
			t.Fatalf("installment %d: expected status %d, got %d: %s", number, http.StatusOK, w.Code, w.Body.String())
		}
	}

	t.Run("quote payoff through installment 4", func(t *testing.T) {
		w := stack.do(t, http.MethodGet, "/api/v1/loans/"+loan.ID+"/payoff?through=4", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.EarlyPayoffResponse
		decodeResponse(t, w, &resp)

		if resp.PrincipalRemainingCents != 200000 {
			t.Errorf("expected principal remaining 200000, got %d", resp.PrincipalRemainingCents)
		}
		if resp.InterestChargedCents != 24000 {
			t.Errorf("expected interest charged 24000, got %d", resp.InterestChargedCents)
		}
		if resp.InterestForgivenCents != 4000 {
			t.Errorf("expected interest forgiven 4000, got %d", resp.InterestForgivenCents)
		}
		if resp.FinalAmountDueCents != 210000 {
			t.Errorf("expected final amount due 210000, got %d", resp.FinalAmountDueCents)
		}
		if resp.TotalPreviouslyPaidCents != 214000 {
			t.Errorf("expected total previously paid 214000, got %d", resp.TotalPreviouslyPaidCents)
		}
		if resp.AppliedAt != nil {
			t.Error("expected quote to carry no applied timestamp")
		}
	})

	t.Run("quote does not mutate the loan", func(t *testing.T) {
		stored, err := stack.loanRepo.GetByID(ctx, loan.ID)
		if err != nil {
			t.Fatalf("failed to reload loan: %v", err)
		}
		if stored.EarlyPayoff != nil {
			t.Error("expected no payoff record after a quote")
		}
	})

	t.Run("apply payoff through installment 4", func(t *testing.T) {
		req := dto.ApplyEarlyPayoffRequest{
			ThroughInstallmentNumber: 4,
			ReceiptRef:               "rcpt-payoff",
			Notes:                    "member settled at branch",
		}

		w := stack.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/payoff", req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.LoanResponse
		decodeResponse(t, w, &resp)

		if resp.Status != "active" {
			t.Errorf("expected status active with installments 5 and 6 outstanding, got %q", resp.Status)
		}
		if resp.EarlyPayoff == nil {
			t.Fatal("expected an early payoff record")
		}
		if resp.EarlyPayoff.FinalAmountDueCents != 210000 {
			t.Errorf("expected final amount due 210000, got %d", resp.EarlyPayoff.FinalAmountDueCents)
		}
		if resp.EarlyPayoff.AppliedAt == nil {
			t.Error("expected an applied timestamp")
		}
		if resp.OutstandingCents != 200000 {
			t.Errorf("expected outstanding 200000, got %d", resp.OutstandingCents)
		}
	})

	t.Run("settled installments are booked paid", func(t *testing.T) {
		stored, err := stack.loanRepo.GetByID(ctx, loan.ID)
		if err != nil {
			t.Fatalf("failed to reload loan: %v", err)
		}

		for _, inst := range stored.Installments[:4] {
			if inst.State != domain.InstallmentPaid {
				t.Errorf("installment %d: expected paid, got %q", inst.Number, inst.State)
			}
		}
		for _, inst := range stored.Installments[4:] {
			if inst.State != domain.InstallmentAwaitingPayment {
				t.Errorf("installment %d: expected awaiting_payment, got %q", inst.Number, inst.State)
			}
		}
	})

	t.Run("second payoff through the same installment fails", func(t *testing.T) {
		req := dto.ApplyEarlyPayoffRequest{
			ThroughInstallmentNumber: 4,
			ReceiptRef:               "rcpt-payoff-dup",
		}

		w := stack.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/payoff", req)
		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
		}
	})

	t.Run("outbox records the payoff", func(t *testing.T) {
		events, err := stack.outboxRepo.GetByAggregate(ctx, "loan", loan.ID, 50, 0)
		if err != nil {
			t.Fatalf("failed to load outbox events: %v", err)
		}

		found := 0
		for _, event := range events {
			if event.EventType == domain.EventTypeEarlyPayoffApplied {
				found++
			}
		}
		if found != 1 {
			t.Errorf("expected 1 %s event, got %d", domain.EventTypeEarlyPayoffApplied, found)
		}
	})
}

func TestEarlyPayoffThroughFinalInstallment(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, ctx, testDB)

	firstDue := time.Now().UTC().AddDate(0, 1, 0)
	loan := testDB.CreateTestLoan(ctx, 6, firstDue)

	req := dto.ApplyEarlyPayoffRequest{
		ThroughInstallmentNumber: 6,
		ReceiptRef:               "rcpt-full",
	}

	w := stack.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/payoff", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp dto.LoanResponse
	decodeResponse(t, w, &resp)

	if resp.Status != "liquidated" {
		t.Errorf("expected status liquidated, got %q", resp.Status)
	}
	if resp.EarlyPayoff == nil {
		t.Fatal("expected an early payoff record")
	}
	// 6% of 600000 charged, 42000 - 36000 forgiven.
	if resp.EarlyPayoff.InterestChargedCents != 36000 {
		t.Errorf("expected interest charged 36000, got %d", resp.EarlyPayoff.InterestChargedCents)
	}
	if resp.EarlyPayoff.InterestForgivenCents != 6000 {
		t.Errorf("expected interest forgiven 6000, got %d", resp.EarlyPayoff.InterestForgivenCents)
	}
	if resp.EarlyPayoff.FinalAmountDueCents != 636000 {
		t.Errorf("expected final amount due 636000, got %d", resp.EarlyPayoff.FinalAmountDueCents)
	}
	if resp.NextUnpaidDueDate != nil {
		t.Errorf("expected no next unpaid due date, got %s", resp.NextUnpaidDueDate.Time)
	}
}
