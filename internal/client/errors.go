package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrTimeout reports that the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNoResponse reports that the server could not be reached at all.
	ErrNoResponse = errors.New("no response from server")
)

// ServerError carries a non-2xx status from the API.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d", e.Status)
}

// classify maps a transport failure onto the error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	return err
}

// UserMessage renders an error as the message shown in the viewer banner.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "Upload timed out. Large studies can take several minutes; please try again."
	case errors.Is(err, ErrNoResponse):
		return "Could not reach the server. Check that the backend is running."
	default:
		var srvErr *ServerError
		if errors.As(err, &srvErr) {
			return fmt.Sprintf("Server error (%d). Please try again.", srvErr.Status)
		}
		return "Something went wrong: " + err.Error()
	}
}
