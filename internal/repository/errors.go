package repository

import "errors"

var (
	ErrNoOpenCart       = errors.New("no open cart for user")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrCartHasPayment   = errors.New("cart has a successful payment and cannot be deleted")
)
