package escrow

import "errors"

// Rejection reasons. Every failed operation returns exactly one of these and
// performs no mutation; callers must resubmit a corrected operation.
var (
	ErrUnauthorized         = errors.New("caller is not the required party for this operation")
	ErrInvalidStatus        = errors.New("vault status does not permit this operation")
	ErrDepositTooSmall      = errors.New("deposit amount below minimum")
	ErrInsufficientBalance  = errors.New("insufficient vault balance")
	ErrVenueNotWhitelisted  = errors.New("venue is not whitelisted")
	ErrSessionExpired       = errors.New("trading session has expired")
	ErrSessionNotExpired    = errors.New("session has not expired yet")
	ErrMathOverflow         = errors.New("math overflow")
	ErrTooEarlyForDeduction = errors.New("too early for compute fee deduction")
	ErrInvalidFeeRecipient  = errors.New("fee recipient does not match vault record")
)
