package exchange

import "github.com/haodong0616/velocity-client/internal/domain"

func newNetworkError(op string, err error) error {
	return domain.NewNetworkError(op, err)
}

func newRejectionError(op, message string) error {
	return &domain.RejectionError{Op: op, Message: message}
}
