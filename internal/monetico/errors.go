package monetico

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField                  = errors.New("missing required field")
	ErrInvalidDateTime               = errors.New("invalid date time")
	ErrInvalidReturnCode             = errors.New("invalid return code")
	ErrInvalidCardVerificationStatus = errors.New("invalid card verification status")
	ErrInvalidCardBrand              = errors.New("invalid card brand")
	ErrInvalidPaymentMethod          = errors.New("invalid payment method")
	ErrInvalidFilteredReason         = errors.New("invalid filtered reason")
	ErrInvalidRejectReason           = errors.New("invalid reject reason")
	ErrInvalidAuthentication         = errors.New("invalid authentication")

	ErrAuthenticationDecode       = errors.New("cannot decode authentication")
	ErrMissingAuthenticationField = errors.New("missing authentication field")
	ErrInvalidProtocol            = errors.New("invalid authentication protocol")
	ErrInvalidStatus              = errors.New("invalid authentication status")
	ErrInvalidVersion             = errors.New("invalid authentication version")
	ErrInvalidLiabilityShift      = errors.New("invalid liability shift")
	ErrInvalidVERes               = errors.New("invalid VERes")
	ErrInvalidPARes               = errors.New("invalid PARes")
	ErrInvalidARes                = errors.New("invalid ARes")
	ErrInvalidCRes                = errors.New("invalid CRes")
	ErrInvalidMerchantPreference  = errors.New("invalid merchant preference")
	ErrInvalidDDDSStatus          = errors.New("invalid 3DS status")
	ErrInvalidDisablingReason     = errors.New("invalid disabling reason")

	// ErrSealMismatch is not returned by VerifySeal; callers use it when they
	// turn a failed check into an error.
	ErrSealMismatch = errors.New("seal mismatch")
)

// FieldError reports which field failed and with which value. Kind is one of
// the sentinel errors above, Err an optional underlying cause.
type FieldError struct {
	Field string
	Value string
	Kind  error
	Err   error
}

func (e *FieldError) Error() string {
	msg := e.Kind.Error() + ": " + e.Field
	if e.Value != "" {
		msg += fmt.Sprintf(" = %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fieldError(kind error, field, value string) *FieldError {
	return &FieldError{Field: field, Value: value, Kind: kind}
}
