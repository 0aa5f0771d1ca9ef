package sink

import (
	"context"
	"net/http"

	apperrors "orderflow/pkg/errors"
)

const (
	StatusCreated  = http.StatusCreated
	StatusReplaced = http.StatusOK
	StatusConflict = http.StatusConflict
)

const contentTypeJSON = "application/json"

// ErrObjectExists is returned with StatusConflict when a non-overwriting
// upload hits a name that is already stored.
var ErrObjectExists = apperrors.ErrConflict.WithMessage("object already exists")

// ErrContainerMissing is reported by Check when the container was never
// created or has been dropped.
var ErrContainerMissing = apperrors.ErrServiceUnavailable.WithMessage("sink container is missing")

// Sink stores named byte objects in a container. Upload reports
// StatusCreated for a new object and, with overwrite, StatusReplaced for an
// existing one. Bytes are stored unmodified. EnsureContainer creates the
// container and runs once at startup; Check only reads.
type Sink interface {
	Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error)
	EnsureContainer(ctx context.Context) error
	Check(ctx context.Context) error
	Kind() string
}
