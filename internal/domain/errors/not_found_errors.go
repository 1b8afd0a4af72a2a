package errors

import "fmt"

// PlanNotFoundError is returned when a plan does not exist or is inactive
type PlanNotFoundError struct {
	PlanID string
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("plan %s not found or inactive", e.PlanID)
}

// NewPlanNotFoundError creates a new PlanNotFoundError
func NewPlanNotFoundError(planID string) *PlanNotFoundError {
	return &PlanNotFoundError{PlanID: planID}
}

// TransactionNotFoundError is returned when a transaction does not exist
type TransactionNotFoundError struct {
	ID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.ID)
}

// NewTransactionNotFoundError creates a new TransactionNotFoundError
func NewTransactionNotFoundError(id string) *TransactionNotFoundError {
	return &TransactionNotFoundError{ID: id}
}
