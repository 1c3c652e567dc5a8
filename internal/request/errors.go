package request

import (
	"fmt"

	"github.com/google/uuid"
)

// ServiceError reports an internal inconsistency while processing a
// request: which request, which lifecycle stage, and the cause.
// Extractor and conversion failures are not wrapped in it; they reach
// the caller as-is.
type ServiceError struct {
	RequestID uuid.UUID
	Stage     Status
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("request %s failed during %s: %v", e.RequestID, e.Stage, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
