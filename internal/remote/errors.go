package remote

import (
	"errors"
	"fmt"
)

// NotFoundError reports that the document store has no timeline for the slug.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("timeline not found: %s", e.Slug)
}

// TransportError covers network failures, unexpected statuses and undecodable bodies.
type TransportError struct {
	Op     string // fetch|replace
	Status int    // 0 when no response was received
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
