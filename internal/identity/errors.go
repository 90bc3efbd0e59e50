package identity

import "fmt"

type ExchangeErrorKind int

const (
	ProviderUnreachable ExchangeErrorKind = iota + 1
	ProviderRejected
)

func (k ExchangeErrorKind) String() string {
	switch k {
	case ProviderUnreachable:
		return "identity provider unreachable"
	case ProviderRejected:
		return "identity provider rejected the session"
	}
	return "identity exchange failed"
}

// ExchangeError is distinct from an authentication failure: the caller
// presented a provider session that could not be traded for claims.
type ExchangeError struct {
	Kind ExchangeErrorKind
	Err  error
}

func (e *ExchangeError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
