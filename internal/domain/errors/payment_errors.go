package errors

import "fmt"

// InvalidPhoneNumberError is returned when a phone number cannot be
// normalized into canonical form. No network call is made for such input.
type InvalidPhoneNumberError struct {
	Raw string
}

func (e *InvalidPhoneNumberError) Error() string {
	return fmt.Sprintf("invalid phone number %q: need at least 9 digits", e.Raw)
}

// NewInvalidPhoneNumberError creates a new InvalidPhoneNumberError
func NewInvalidPhoneNumberError(raw string) *InvalidPhoneNumberError {
	return &InvalidPhoneNumberError{Raw: raw}
}

// PaymentInitiationError is returned when the transaction-creation request
// is rejected or fails in transit. The flow stays in enter-phone so the
// user can resubmit.
type PaymentInitiationError struct {
	StatusCode int
	Message    string
}

func (e *PaymentInitiationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment initiation failed: %s", e.Message)
	}
	return fmt.Sprintf("payment initiation failed with status %d", e.StatusCode)
}

// NewPaymentInitiationError creates a new PaymentInitiationError
func NewPaymentInitiationError(statusCode int, message string) *PaymentInitiationError {
	return &PaymentInitiationError{StatusCode: statusCode, Message: message}
}

// PollTimeoutError is returned when the polling attempt ceiling is
// exhausted without the transaction reaching a terminal status.
type PollTimeoutError struct {
	TransactionID string
	Attempts      int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed after %d attempts", e.TransactionID, e.Attempts)
}

// NewPollTimeoutError creates a new PollTimeoutError
func NewPollTimeoutError(transactionID string, attempts int) *PollTimeoutError {
	return &PollTimeoutError{TransactionID: transactionID, Attempts: attempts}
}
