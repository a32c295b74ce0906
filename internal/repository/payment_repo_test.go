package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

func newPaymentRepo(t *testing.T) (sqlmock.Sqlmock, *PaymentRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewPaymentRepo(db)
}

func TestPaymentCreate(t *testing.T) {
	mock, repo := newPaymentRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments`)).
		WithArgs(int64(5), int64(42), "ch_1", "cus_1", domain.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))

	p := &domain.Payment{
		CartID:              5,
		UserID:              42,
		ProcessorChargeID:   "ch_1",
		ProcessorCustomerID: "cus_1",
		Status:              domain.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(9), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreate_DuplicateCart(t *testing.T) {
	mock, repo := newPaymentRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_cart_id_key"})

	err := repo.Create(context.Background(), &domain.Payment{CartID: 5, UserID: 42})
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestGetByCartID_NotFound(t *testing.T) {
	mock, repo := newPaymentRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE cart_id = $1`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "user_id", "processor_charge_id", "processor_customer_id", "status", "created_at"}))

	_, err := repo.GetByCartID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestMarkSuccessful(t *testing.T) {
	mock, repo := newPaymentRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2 WHERE cart_id = $1`)).
		WithArgs(int64(5), domain.PaymentStatusSuccessful).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.MarkSuccessful(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMarkSuccessful_NoMatchingPayment(t *testing.T) {
	mock, repo := newPaymentRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2 WHERE cart_id = $1`)).
		WithArgs(int64(404), domain.PaymentStatusSuccessful).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.MarkSuccessful(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListByUser(t *testing.T) {
	mock, repo := newPaymentRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE user_id = $1`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "user_id", "processor_charge_id", "processor_customer_id", "status", "created_at"}).
			AddRow(9, 5, 42, "ch_1", "cus_1", domain.PaymentStatusSuccessful, now).
			AddRow(8, 4, 42, "ch_0", "cus_1", domain.PaymentStatusSuccessful, now.Add(-time.Hour)))

	payments, err := repo.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, int64(5), payments[0].CartID)
	assert.Equal(t, domain.PaymentStatusSuccessful, payments[0].Status)
}
