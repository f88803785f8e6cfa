package services

import "errors"

// Sentinel errors for the payment pipeline. Handlers translate these to
// HTTP status codes; everything else surfaces as a generic 500 and the
// payment state is left untouched by the rolled-back transaction.
var (
	ErrValidation           = errors.New("invalid payment input")
	ErrDuplicateTransaction = errors.New("transaction reference already claimed by a live payment")
	ErrStateConflict        = errors.New("payment is not in a state that allows this action")
	ErrPaymentNotFound      = errors.New("payment not found")
)
