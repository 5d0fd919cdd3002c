package llm

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
)

// statusFunc extracts the HTTP status of a provider API error, if err is one.
type statusFunc func(err error) (int, bool)

// classify maps a provider failure onto the ServiceError taxonomy. started
// reports whether any text was already produced, which turns transport
// failures into stream failures.
func classify(err error, base domain.ServiceError, started bool, status statusFunc) *domain.ServiceError {
	var se *domain.ServiceError
	if errors.As(err, &se) {
		return se
	}

	e := base
	e.Err = err

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Kind = domain.KindCanceled
	case isTransport(err):
		if started {
			e.Kind = domain.KindStream
		} else {
			e.Kind = domain.KindUnreachable
		}
	case errors.Is(err, io.ErrUnexpectedEOF):
		e.Kind = domain.KindStream
	default:
		code, ok := status(err)
		switch {
		case ok && code == http.StatusNotFound:
			e.Kind = domain.KindModelUnavailable
		case ok, started:
			e.Kind = domain.KindStream
		default:
			e.Kind = domain.KindInternal
		}
	}
	return &e
}

func isTransport(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}
