package checkout

import (
	"context"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
	"github.com/osamaaslam86004/E-Commrace/internal/identity"
	"github.com/osamaaslam86004/E-Commrace/internal/repository"
)

type mockCartReader struct {
	cart    *domain.Cart
	cartErr error
	item    *domain.CartItem
	itemErr error
	carts   []domain.Cart
}

func (m *mockCartReader) FindOpenCart(context.Context, int64) (*domain.Cart, error) {
	if m.cartErr != nil {
		return nil, m.cartErr
	}
	if m.cart == nil {
		return nil, repository.ErrNoOpenCart
	}
	return m.cart, nil
}

func (m *mockCartReader) GetItem(context.Context, int64) (*domain.CartItem, error) {
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	if m.item == nil {
		return nil, repository.ErrCartItemNotFound
	}
	return m.item, nil
}

func (m *mockCartReader) CartsWithPayment(context.Context, int64) ([]domain.Cart, error) {
	return m.carts, nil
}

type mockPaymentStore struct {
	created   []*domain.Payment
	createErr error
	payment   *domain.Payment
	getErr    error
	markedIDs []int64
	markedN   int64
	payments  []domain.Payment
}

func (m *mockPaymentStore) Create(_ context.Context, p *domain.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, p)
	return nil
}

func (m *mockPaymentStore) GetByCartID(context.Context, int64) (*domain.Payment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.payment == nil {
		return nil, repository.ErrPaymentNotFound
	}
	return m.payment, nil
}

func (m *mockPaymentStore) MarkSuccessful(_ context.Context, cartID int64) (int64, error) {
	m.markedIDs = append(m.markedIDs, cartID)
	return m.markedN, nil
}

func (m *mockPaymentStore) ListByUser(context.Context, int64) ([]domain.Payment, error) {
	return m.payments, nil
}

type refundCall struct {
	itemID   int64
	chargeID string
}

type mockRefundStore struct {
	refund *domain.Refund
	err    error
	calls  []refundCall
}

func (m *mockRefundStore) MarkRefunded(_ context.Context, cartItemID int64, processorRefundID string) (*domain.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, refundCall{itemID: cartItemID, chargeID: processorRefundID})
	if m.refund != nil {
		return m.refund, nil
	}
	return &domain.Refund{
		CartItemID:        cartItemID,
		ProcessorRefundID: processorRefundID,
		Status:            domain.RefundStatusRefunded,
	}, nil
}

type processorRefund struct {
	chargeID   string
	amount     int64
	userID     int64
	cartItemID int64
}

type mockProcessor struct {
	searchCustomer *Customer
	searchErr      error

	createdCustomer     *Customer
	createCustomerErr   error
	createCustomerCalls int

	charge       *Charge
	chargeErr    error
	chargeParams []ChargeParams

	retrieveErr   error
	retrieveCalls int

	modifyErr   error
	modifyCalls int

	refundID    string
	refundErr   error
	refundCalls []processorRefund
}

func (m *mockProcessor) SearchCustomer(context.Context, string, string, int64) (*Customer, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchCustomer, nil
}

func (m *mockProcessor) CreateCustomer(context.Context, *identity.Identity, int64) (*Customer, error) {
	m.createCustomerCalls++
	if m.createCustomerErr != nil {
		return nil, m.createCustomerErr
	}
	return m.createdCustomer, nil
}

func (m *mockProcessor) CreateCharge(_ context.Context, p ChargeParams) (*Charge, error) {
	m.chargeParams = append(m.chargeParams, p)
	if m.chargeErr != nil {
		return nil, m.chargeErr
	}
	return m.charge, nil
}

func (m *mockProcessor) RetrieveCharge(_ context.Context, chargeID string) (*Charge, error) {
	m.retrieveCalls++
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	return &Charge{ID: chargeID}, nil
}

func (m *mockProcessor) MarkChargeNonRefundable(context.Context, string) error {
	m.modifyCalls++
	return m.modifyErr
}

func (m *mockProcessor) CreateRefund(_ context.Context, chargeID string, amountCents int64, userID, cartItemID int64) (string, error) {
	if m.refundErr != nil {
		return "", m.refundErr
	}
	m.refundCalls = append(m.refundCalls, processorRefund{
		chargeID:   chargeID,
		amount:     amountCents,
		userID:     userID,
		cartItemID: cartItemID,
	})
	return m.refundID, nil
}

type mockIdentityResolver struct {
	ident *identity.Identity
	err   error
}

func (m *mockIdentityResolver) Lookup(context.Context, int64) (*identity.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ident, nil
}
