package domain

import "errors"

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrProductNotFound    = errors.New("product not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrCartItemNotOwned   = errors.New("cart item belongs to another shopper")
	ErrAccessDenied       = errors.New("access denied")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotImplemented     = errors.New("endpoint not mock-implemented")
)
