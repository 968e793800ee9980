package core

import (
	"errors"
	"fmt"
)

// The four error families every layer classifies against with
// errors.Is. Specific errors below wrap exactly one family.
var (
	ErrValidation  = errors.New("validation error")
	ErrReferential = errors.New("referential error")
	ErrConflict    = errors.New("conflict error")
	ErrStorage     = errors.New("storage error")
)

// Validation: the caller's input is wrong and retrying unchanged will
// fail again.
var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrAmountTooLarge      = fmt.Errorf("%w: amount exceeds the allowed maximum", ErrValidation)
	ErrOperatorNotSelected = fmt.Errorf("%w: an operator must be selected", ErrValidation)
	ErrUnknownOperator     = fmt.Errorf("%w: unknown operator", ErrValidation)
	ErrInvalidType         = fmt.Errorf("%w: transaction type must be Deposit or Withdrawal", ErrValidation)
	ErrInvalidRole         = fmt.Errorf("%w: role must be admin or agent", ErrValidation)
	ErrEmptyUsername       = fmt.Errorf("%w: username cannot be empty", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	ErrPasswordMismatch    = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrInvalidWindow       = fmt.Errorf("%w: summary window cannot be negative", ErrValidation)
)

// Referential: the input was well formed but names something that does
// not exist. Failed credential checks live here so unknown users and
// wrong passwords are indistinguishable to callers.
var (
	ErrUnknownAgent       = fmt.Errorf("%w: unknown agent", ErrReferential)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrReferential)
)

// Conflict: the write collides with existing state.
var (
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
)
