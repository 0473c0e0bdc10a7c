package domain

import (
	"github.com/google/uuid"

	dErrors "drivelog/pkg/domain-errors"
)

// Identity is an opaque participant identifier. The same identity may act as
// subject, reader, or administrator depending on the operation it invokes;
// there is no structural difference between the three.
type Identity uuid.UUID

// ZeroIdentity is the null identity. It is never a valid participant.
var ZeroIdentity = Identity(uuid.Nil)

// ParseIdentity validates an identity at a trust boundary. Empty strings,
// malformed values, and the nil UUID are all rejected.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return ZeroIdentity, dErrors.New(dErrors.CodeZeroIdentity, "identity must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroIdentity, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed identity")
	}
	if u == uuid.Nil {
		return ZeroIdentity, dErrors.New(dErrors.CodeZeroIdentity, "identity must not be the zero value")
	}
	return Identity(u), nil
}

// NewIdentity mints a fresh random identity. Used by tests and seeding.
func NewIdentity() Identity {
	return Identity(uuid.New())
}

func (i Identity) IsZero() bool {
	return uuid.UUID(i) == uuid.Nil
}

func (i Identity) String() string {
	return uuid.UUID(i).String()
}

// MarshalText renders the identity as a canonical UUID string for JSON and
// log output.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts any well-formed UUID, including the nil UUID; zero
// checks belong to the operation boundaries, not the codec.
func (i *Identity) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*i = Identity(u)
	return nil
}
