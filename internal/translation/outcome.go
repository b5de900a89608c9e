package translation

// Kind tags the terminal state of one translation.
type Kind int

const (
	KindSuccess Kind = iota
	KindInvalidInput
	KindBackendFailure
	KindEmptyResult
	KindUnexpectedFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindInvalidInput:
		return "invalid_input"
	case KindBackendFailure:
		return "backend_failure"
	case KindEmptyResult:
		return "empty_result"
	case KindUnexpectedFailure:
		return "unexpected_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of a translation. Only the fields belonging to Kind are set.
type Outcome struct {
	Kind Kind

	// KindSuccess
	Text string

	// KindInvalidInput
	Field string

	// KindBackendFailure
	Status  int
	Message string

	// KindInvalidInput, KindBackendFailure, KindEmptyResult and KindUnexpectedFailure.
	Err error
}

func succeeded(text string) Outcome {
	return Outcome{Kind: KindSuccess, Text: text}
}

func invalidInput(err *ValidationError) Outcome {
	return Outcome{Kind: KindInvalidInput, Field: err.Field, Err: err}
}

func backendFailure(status int, message string, err error) Outcome {
	return Outcome{Kind: KindBackendFailure, Status: status, Message: message, Err: err}
}

func emptyResult() Outcome {
	return Outcome{Kind: KindEmptyResult, Err: ErrEmptyResult}
}

func unexpectedFailure(err error) Outcome {
	return Outcome{Kind: KindUnexpectedFailure, Err: err}
}
