package identity

import (
	"context"
	"errors"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// ErrNoCredential is returned when no usable credential is present.
// Invalid, expired, and revoked credentials all collapse to this error:
// the gate must not be able to distinguish them.
var ErrNoCredential = errors.New("no credential")

// Provider is the external identity provider surface the gate depends on.
// Current returns the identity behind the current credential, or
// ErrNoCredential. Invalidate force-signs-out the current credential;
// it is a no-op when no credential is present.
type Provider interface {
	Current(ctx context.Context) (domain.Identity, error)
	Invalidate(ctx context.Context) error
}
