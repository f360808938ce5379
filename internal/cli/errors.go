package cli

import (
	"errors"
	"fmt"

	"timeline-cli/internal/remote"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

func loadError(slug string, err error) error {
	if remote.IsNotFound(err) {
		return errNotFound("timeline", slug)
	}
	var te *remote.TransportError
	if errors.As(err, &te) {
		return fmt.Errorf("could not load timeline %s: %w", slug, err)
	}
	return err
}
