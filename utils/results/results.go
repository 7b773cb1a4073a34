// Package results defines the two-armed operation result returned by service
// operations: Success carries the business outcome, Failure carries the
// caller-facing business failure. Infrastructure errors travel on the error
// return beside the result, never inside it.
package results

// OperationResult holds either a success payload or a failure payload.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult builds a success-armed result.
func SuccessResult[S any, F any](success S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &success}
}

// FailureResult builds a failure-armed result.
func FailureResult[S any, F any](failure F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &failure}
}

// IsSuccess reports whether the success arm is populated.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the failure arm is populated.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}
