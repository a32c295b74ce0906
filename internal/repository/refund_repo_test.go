package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

func newRefundRepo(t *testing.T) (sqlmock.Sqlmock, *RefundRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewRefundRepo(db)
}

var refundColumns = []string{"id", "cart_id", "cart_item_id", "processor_refund_id", "status"}

func TestMarkRefunded(t *testing.T) {
	mock, repo := newRefundRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refunds`)).
		WithArgs(int64(77), "ch_1", domain.RefundStatusRefunded).
		WillReturnRows(sqlmock.NewRows(refundColumns).AddRow(3, 5, 77, "ch_1", domain.RefundStatusRefunded))

	ref, err := repo.MarkRefunded(context.Background(), 77, "ch_1")
	require.NoError(t, err)
	assert.Equal(t, int64(77), ref.CartItemID)
	assert.Equal(t, domain.RefundStatusRefunded, ref.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRefunded_Replay(t *testing.T) {
	mock, repo := newRefundRepo(t)

	// A replayed webhook hits the upsert's conflict branch and still gets the
	// row back.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refunds`)).
			WithArgs(int64(77), "ch_1", domain.RefundStatusRefunded).
			WillReturnRows(sqlmock.NewRows(refundColumns).AddRow(3, 5, 77, "ch_1", domain.RefundStatusRefunded))
	}

	for i := 0; i < 2; i++ {
		ref, err := repo.MarkRefunded(context.Background(), 77, "ch_1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), ref.ID)
	}
}

func TestMarkRefunded_UnknownItem(t *testing.T) {
	mock, repo := newRefundRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refunds`)).
		WithArgs(int64(404), "ch_1", domain.RefundStatusRefunded).
		WillReturnRows(sqlmock.NewRows(refundColumns))

	_, err := repo.MarkRefunded(context.Background(), 404, "ch_1")
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestGetByCartItem(t *testing.T) {
	mock, repo := newRefundRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refunds WHERE cart_item_id = $1`)).
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows(refundColumns).AddRow(3, 5, 77, "ch_1", domain.RefundStatusRefunded))

	ref, err := repo.GetByCartItem(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", ref.ProcessorRefundID)
}
