package predict

import "fmt"

// Kind classifies why a submission failed. Callers only need Message for
// display; Kind is kept for logging.
type Kind string

const (
	KindInput     Kind = "input"
	KindTransport Kind = "transport"
	KindBusiness  Kind = "business"
	KindProtocol  Kind = "protocol"
)

// Error is returned by Submit for every failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func inputError(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

func transportError(err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: "could not reach the prediction service",
		Err:     err,
	}
}

func businessError(status int, detail string) *Error {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("prediction failed: HTTP status %d", status)
	}
	return &Error{Kind: KindBusiness, Status: status, Message: msg}
}

func protocolError(status int, err error) *Error {
	return &Error{
		Kind:    KindProtocol,
		Status:  status,
		Message: "received an invalid response from the prediction service",
		Err:     err,
	}
}
