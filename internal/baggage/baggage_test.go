package baggage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBundleRoundTripsThroughContext(t *testing.T) {
	b := Bundle{Project: "proj-1", User: "user-1"}
	ctx := WithBundle(context.Background(), b)
	assert.Equal(t, b, FromContext(ctx))
}

func TestFromContextZeroValueWhenAbsent(t *testing.T) {
	assert.Equal(t, Bundle{}, FromContext(context.Background()))
}

func TestOTelBaggageRoundTrip(t *testing.T) {
	b := Bundle{Project: "proj-1", Prompt: "p1", Endpoint: "e1", APIKey: "sk-1", User: "u1"}
	bg, err := ToOTelBaggage(b)
	require.NoError(t, err)
	assert.Equal(t, b, FromOTelBaggage(bg))
}

func TestOTelBaggageSkipsEmptyFields(t *testing.T) {
	b := Bundle{Project: "proj-1"}
	bg, err := ToOTelBaggage(b)
	require.NoError(t, err)
	assert.Len(t, bg.Members(), 1)
}

func TestHeadersOnlyIncludesPopulatedFields(t *testing.T) {
	b := Bundle{Project: "proj-1"}
	h := b.Headers()
	assert.Equal(t, "proj-1", h["X-Baggage-Project"])
	_, ok := h["X-Baggage-User"]
	assert.False(t, ok)
}
