package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	adaptershttp "github.com/bnp/financing/internal/adapter/http"
	"github.com/bnp/financing/internal/adapter/http/handler"
	"github.com/bnp/financing/internal/adapter/repository/postgres"
	redisrepo "github.com/bnp/financing/internal/adapter/repository/redis"
	"github.com/bnp/financing/internal/infrastructure/beneficiary"
	infraredis "github.com/bnp/financing/internal/infrastructure/redis"
	"github.com/bnp/financing/internal/usecase"
	"github.com/bnp/financing/tests/testutil"
)

// testStack wires the full HTTP surface against real postgres and redis.
// Metrics are left nil so repeated setups do not re-register collectors.
type testStack struct {
	router     http.Handler
	loanRepo   *postgres.LoanRepository
	outboxRepo *postgres.OutboxRepository
}

func newTestStack(t *testing.T, ctx context.Context, testDB *testutil.TestDB) *testStack {
	t.Helper()

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	directory := beneficiary.NewStaticDirectory(map[string]string{
		"ben-001": "Maria Lopez",
		"ben-002": "Jorge Ramirez",
	})

	loanUC := usecase.NewLoanUseCase(txManager, loanRepo, outboxRepo, auditRepo, directory, idGen, retrier, nil)
	paymentUC := usecase.NewPaymentUseCase(txManager, loanRepo, outboxRepo, auditRepo, idGen, retrier, nil)
	payoffUC := usecase.NewPayoffUseCase(txManager, loanRepo, outboxRepo, auditRepo, idGen, retrier, nil)
	delinquencyUC := usecase.NewDelinquencyUseCase(txManager, loanRepo, outboxRepo, idGen, retrier, nil)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		LoanHandler:        handler.NewLoanHandler(loanUC),
		PaymentHandler:     handler.NewPaymentHandler(paymentUC),
		PayoffHandler:      handler.NewPayoffHandler(payoffUC),
		DelinquencyHandler: handler.NewDelinquencyHandler(delinquencyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   redisrepo.NewIdempotencyStore(redisClient),
	})

	return &testStack{
		router:     router,
		loanRepo:   loanRepo,
		outboxRepo: outboxRepo,
	}
}

func (s *testStack) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)

	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
}
