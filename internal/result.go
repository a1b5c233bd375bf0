package internal

import "encoding/json"

// ActionError is the uniform failure shape every catalog call can produce.
type ActionError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Type    string `json:"type,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Outcome tags which variant a Result holds.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeEmpty is a soft failure: no data, nothing to report.
	OutcomeEmpty
	OutcomeFailed
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Result is what every action returns: a value, nothing, a failure or a
// redirect. It never carries a Go error; callers switch on Outcome.
type Result[T any] struct {
	Value      T
	Err        *ActionError
	RedirectTo string
	outcome    Outcome
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, outcome: OutcomeOK}
}

// Empty is the soft-fail variant.
func Empty[T any]() Result[T] {
	return Result[T]{outcome: OutcomeEmpty}
}

// Failed wraps an ActionError.
func Failed[T any](e *ActionError) Result[T] {
	return Result[T]{Err: e, outcome: OutcomeFailed}
}

// FailedMessage builds a failure from a message and optional status.
func FailedMessage[T any](message string, status int) Result[T] {
	return Failed[T](&ActionError{Error: true, Message: message, Status: status})
}

// Redirect asks the surface to send the user to location.
func Redirect[T any](location string) Result[T] {
	return Result[T]{RedirectTo: location, outcome: OutcomeRedirect}
}

func (r Result[T]) Outcome() Outcome { return r.outcome }
func (r Result[T]) IsOK() bool       { return r.outcome == OutcomeOK }
func (r Result[T]) IsEmpty() bool    { return r.outcome == OutcomeEmpty }
func (r Result[T]) IsFailed() bool   { return r.outcome == OutcomeFailed }
func (r Result[T]) IsRedirect() bool { return r.outcome == OutcomeRedirect }

// Unwrap returns the value and true only for OK results.
func (r Result[T]) Unwrap() (T, bool) {
	return r.Value, r.outcome == OutcomeOK
}

// Body is the JSON-facing view of the result: the value, null, or the error shape.
func (r Result[T]) Body() interface{} {
	switch r.outcome {
	case OutcomeOK:
		return r.Value
	case OutcomeFailed:
		return r.Err
	case OutcomeRedirect:
		return map[string]string{"redirect": r.RedirectTo}
	default:
		return nil
	}
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body())
}

// MapResult converts the value of an OK result and passes the other variants through.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch r.outcome {
	case OutcomeOK:
		return OK(fn(r.Value))
	case OutcomeFailed:
		return Failed[U](r.Err)
	case OutcomeRedirect:
		return Redirect[U](r.RedirectTo)
	default:
		return Empty[U]()
	}
}
