package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same scan
// and statement code serves locked and unlocked reads.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoanRepository implements usecase.LoanRepository. A loan row carries the
// whole aggregate: scalar loan columns plus the installment schedule and the
// early-payoff record as JSONB documents. The schedule is small and bounded
// (one row per month of financing) and always loads with its loan, so there
// is no separate installments table to keep consistent.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `
	id, beneficiary_id, beneficiary_name,
	financed_principal, annual_interest_rate, total_interest,
	installment_count, status, installments, early_payoff,
	next_unpaid_due_date, version, created_at, updated_at
`

// Create inserts a new loan aggregate within a transaction.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	installmentsJSON, payoffJSON, err := marshalLoanDocs(loan)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		loan.ID,
		loan.Beneficiary.ID,
		loan.Beneficiary.DisplayName,
		decimalToNumeric(loan.FinancedPrincipal),
		decimalToNumeric(loan.AnnualInterestRate),
		decimalToNumeric(loan.TotalInterest),
		loan.InstallmentCount,
		loan.Status,
		installmentsJSON,
		payoffJSON,
		nextUnpaidDueDate(loan),
		loan.Version,
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	return getLoan(ctx, r.pool, id, "")
}

// GetByIDForUpdate retrieves a loan by ID with a FOR UPDATE lock.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	return getLoan(ctx, tx.(*Tx).PgxTx(), id, " FOR UPDATE")
}

func getLoan(ctx context.Context, q querier, id, lock string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1` + lock

	loan, err := scanLoan(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	return loan, nil
}

// Save persists a mutated aggregate with an optimistic version check. The
// version the aggregate was loaded with must still be the stored version;
// zero rows affected means a concurrent writer got there first.
func (r *LoanRepository) Save(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	installmentsJSON, payoffJSON, err := marshalLoanDocs(loan)
	if err != nil {
		return err
	}

	query := `
		UPDATE loans SET
			status = $1,
			installments = $2,
			early_payoff = $3,
			next_unpaid_due_date = $4,
			version = version + 1,
			updated_at = $5
		WHERE id = $6 AND version = $7
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		loan.Status,
		installmentsJSON,
		payoffJSON,
		nextUnpaidDueDate(loan),
		timeToPgTimestamptz(loan.UpdatedAt),
		loan.ID,
		loan.Version,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}

	loan.Version++

	return nil
}

// List lists loans with pagination, newest first.
func (r *LoanRepository) List(ctx context.Context, limit, offset int) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return queryLoans(ctx, r.pool, query, limit, offset)
}

// ListOverdue lists open loans whose next unpaid installment fell due before
// asOf. Closed loans and fully current loans carry a NULL due-date column and
// never match.
func (r *LoanRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE next_unpaid_due_date IS NOT NULL
		  AND next_unpaid_due_date < $1
		ORDER BY next_unpaid_due_date
		LIMIT $2
	`

	return queryLoans(ctx, r.pool, query, timeToPgTimestamptz(asOf), limit)
}

func queryLoans(ctx context.Context, q querier, query string, args ...any) ([]*domain.Loan, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan             domain.Loan
		principal        pgtype.Numeric
		rate             pgtype.Numeric
		totalInterest    pgtype.Numeric
		installmentsJSON []byte
		payoffJSON       []byte
		nextDue          pgtype.Timestamptz
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&loan.ID,
		&loan.Beneficiary.ID,
		&loan.Beneficiary.DisplayName,
		&principal,
		&rate,
		&totalInterest,
		&loan.InstallmentCount,
		&loan.Status,
		&installmentsJSON,
		&payoffJSON,
		&nextDue,
		&loan.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.FinancedPrincipal = numericToDecimal(principal)
	loan.AnnualInterestRate = numericToDecimal(rate)
	loan.TotalInterest = numericToDecimal(totalInterest)
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time

	var docs []installmentDoc
	if err := json.Unmarshal(installmentsJSON, &docs); err != nil {
		return nil, err
	}
	loan.Installments = make([]domain.Installment, 0, len(docs))
	for _, doc := range docs {
		loan.Installments = append(loan.Installments, doc.toDomain())
	}

	if payoffJSON != nil {
		var doc payoffDoc
		if err := json.Unmarshal(payoffJSON, &doc); err != nil {
			return nil, err
		}
		loan.EarlyPayoff = doc.toDomain()
	}

	return &loan, nil
}

func marshalLoanDocs(loan *domain.Loan) (installmentsJSON, payoffJSON []byte, err error) {
	docs := make([]installmentDoc, 0, len(loan.Installments))
	for i := range loan.Installments {
		docs = append(docs, installmentDocFrom(&loan.Installments[i]))
	}

	installmentsJSON, err = json.Marshal(docs)
	if err != nil {
		return nil, nil, err
	}

	if loan.EarlyPayoff != nil {
		payoffJSON, err = json.Marshal(payoffDocFrom(loan.EarlyPayoff))
		if err != nil {
			return nil, nil, err
		}
	}

	return installmentsJSON, payoffJSON, nil
}

func nextUnpaidDueDate(loan *domain.Loan) pgtype.Timestamptz {
	if loan.IsClosed() {
		return pgtype.Timestamptz{}
	}

	due := loan.NextUnpaidDueDate()
	if due == nil {
		return pgtype.Timestamptz{}
	}

	return timeToPgTimestamptz(*due)
}

// installmentDoc is the JSONB shape of one installment inside a loan row.
type installmentDoc struct {
	Number             int             `json:"number"`
	PrincipalPortion   decimal.Decimal `json:"principal_portion"`
	InterestPortion    decimal.Decimal `json:"interest_portion"`
	DueDate            time.Time       `json:"due_date"`
	State              string          `json:"state"`
	MarkedDelinquentAt *time.Time      `json:"marked_delinquent_at,omitempty"`
	MoratoryRate       decimal.Decimal `json:"moratory_rate"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	PrincipalPaid      decimal.Decimal `json:"principal_paid"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
	MoratoryPaid       decimal.Decimal `json:"moratory_paid"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	ReceiptRef         string          `json:"receipt_ref,omitempty"`
	LitigationNotes    string          `json:"litigation_notes,omitempty"`
}

func installmentDocFrom(inst *domain.Installment) installmentDoc {
	return installmentDoc{
		Number:             inst.Number,
		PrincipalPortion:   inst.PrincipalPortion,
		InterestPortion:    inst.InterestPortion,
		DueDate:            inst.DueDate,
		State:              string(inst.State),
		MarkedDelinquentAt: inst.MarkedDelinquentAt,
		MoratoryRate:       inst.MoratoryRate,
		PaidAt:             inst.PaidAt,
		PrincipalPaid:      inst.PrincipalPaid,
		InterestPaid:       inst.InterestPaid,
		MoratoryPaid:       inst.MoratoryPaid,
		TotalPaid:          inst.TotalPaid,
		ReceiptRef:         inst.ReceiptRef,
		LitigationNotes:    inst.LitigationNotes,
	}
}

func (d installmentDoc) toDomain() domain.Installment {
	return domain.Installment{
		Number:             d.Number,
		PrincipalPortion:   d.PrincipalPortion,
		InterestPortion:    d.InterestPortion,
		DueDate:            d.DueDate,
		State:              domain.InstallmentState(d.State),
		MarkedDelinquentAt: d.MarkedDelinquentAt,
		MoratoryRate:       d.MoratoryRate,
		PaidAt:             d.PaidAt,
		PrincipalPaid:      d.PrincipalPaid,
		InterestPaid:       d.InterestPaid,
		MoratoryPaid:       d.MoratoryPaid,
		TotalPaid:          d.TotalPaid,
		ReceiptRef:         d.ReceiptRef,
		LitigationNotes:    d.LitigationNotes,
	}
}

// payoffDoc is the JSONB shape of an applied early payoff.
type payoffDoc struct {
	ThroughInstallmentNumber int             `json:"through_installment_number"`
	PrincipalRemaining       decimal.Decimal `json:"principal_remaining"`
	InterestCharged          decimal.Decimal `json:"interest_charged"`
	InterestForgiven         decimal.Decimal `json:"interest_forgiven"`
	FinalAmountDue           decimal.Decimal `json:"final_amount_due"`
	TotalPreviouslyPaid      decimal.Decimal `json:"total_previously_paid"`
	ForgivenessClamped       bool            `json:"forgiveness_clamped"`
	ReceiptRef               string          `json:"receipt_ref,omitempty"`
	Notes                    string          `json:"notes,omitempty"`
	AppliedAt                time.Time       `json:"applied_at"`
}

func payoffDocFrom(record *domain.EarlyPayoffRecord) payoffDoc {
	return payoffDoc{
		ThroughInstallmentNumber: record.ThroughInstallmentNumber,
		PrincipalRemaining:       record.PrincipalRemaining,
		InterestCharged:          record.InterestCharged,
		InterestForgiven:         record.InterestForgiven,
		FinalAmountDue:           record.FinalAmountDue,
		TotalPreviouslyPaid:      record.TotalPreviouslyPaid,
		ForgivenessClamped:       record.ForgivenessClamped,
		ReceiptRef:               record.ReceiptRef,
		Notes:                    record.Notes,
		AppliedAt:                record.AppliedAt,
	}
}

func (d payoffDoc) toDomain() *domain.EarlyPayoffRecord {
	return &domain.EarlyPayoffRecord{
		ThroughInstallmentNumber: d.ThroughInstallmentNumber,
		PrincipalRemaining:       d.PrincipalRemaining,
		InterestCharged:          d.InterestCharged,
		InterestForgiven:         d.InterestForgiven,
		FinalAmountDue:           d.FinalAmountDue,
		TotalPreviouslyPaid:      d.TotalPreviouslyPaid,
		ForgivenessClamped:       d.ForgivenessClamped,
		ReceiptRef:               d.ReceiptRef,
		Notes:                    d.Notes,
		AppliedAt:                d.AppliedAt,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
