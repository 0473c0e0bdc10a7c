package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "drivelog/pkg/domain-errors"
)

// TestParseIdentity_Invariants validates the trust-boundary rule: identities
// must be valid, non-empty, non-nil UUIDs.
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeZeroIdentity))
	})

	t.Run("rejects malformed value", func(t *testing.T) {
		_, err := ParseIdentity("not-an-identity")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects the zero identity", func(t *testing.T) {
		_, err := ParseIdentity(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeZeroIdentity))
	})

	t.Run("accepts a valid identity and round-trips", func(t *testing.T) {
		want := NewIdentity()
		got, err := ParseIdentity(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.False(t, got.IsZero())
	})
}

func TestZeroIdentity(t *testing.T) {
	assert.True(t, ZeroIdentity.IsZero())
	assert.False(t, NewIdentity().IsZero())
}

// TestIdentity_TextCodec ensures identities serialize as UUID strings in
// JSON, not as raw byte arrays.
func TestIdentity_TextCodec(t *testing.T) {
	want := NewIdentity()

	text, err := want.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(text))

	var got Identity
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, want, got)
}

// FuzzParseIdentity checks that parsing never panics and that accepted values
// round-trip exactly.
func FuzzParseIdentity(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseIdentity(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseIdentity(id.String())
		if err2 != nil {
			t.Fatalf("accepted identity failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Fatal("round-trip changed identity value")
		}
	})
}
