package analysis

import (
	"context"
	"errors"

	"github.com/dshills/byteme/internal/service"
)

var (
	// ErrRequestInFlight reports a submit or retry while a request is loading.
	ErrRequestInFlight = errors.New("an analysis is already in progress")
	// ErrClosed reports an intent on a closed orchestrator.
	ErrClosed = errors.New("orchestrator closed")
)

const (
	reasonUnavailable = "Analysis failed. Please try again."
	reasonMalformed   = "The analysis service returned an unreadable response."
	reasonTimeout     = "The analysis took too long. Please try again."
)

// classify maps a remote-call error onto the failure taxonomy. Anything that
// is not a rejection, a timeout or a malformed payload counts as the service
// being unavailable.
func classify(err error) Failure {
	var rej *service.RejectedError
	switch {
	case errors.As(err, &rej):
		return Failure{Kind: KindRemoteRejected, Reason: rej.Message, StatusCode: rej.StatusCode}
	case errors.Is(err, service.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Failure{Kind: KindTimeout, Reason: reasonTimeout}
	case errors.Is(err, service.ErrMalformedResponse):
		return Failure{Kind: KindMalformedResponse, Reason: reasonMalformed}
	default:
		return Failure{Kind: KindRemoteUnavailable, Reason: reasonUnavailable}
	}
}

// Err converts a failure back into the matching sentinel or typed error.
func (f *Failure) Err() error {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case KindRemoteRejected:
		return &service.RejectedError{StatusCode: f.StatusCode, Message: f.Reason}
	case KindTimeout:
		return service.ErrTimeout
	case KindMalformedResponse:
		return service.ErrMalformedResponse
	default:
		return service.ErrRemoteUnavailable
	}
}
