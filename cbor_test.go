package modal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCBORCodec_RoundTrip(t *testing.T) {
	codec, err := newCBORCodec()
	require.NoError(t, err)

	in := map[string]any{
		"name":  "sandbox-1",
		"count": int64(3),
		"ratio": 0.5,
		"tags":  []any{"a", "b"},
	}

	data, err := codec.Marshal(in)
	require.NoError(t, err)

	var out any
	require.NoError(t, codec.Unmarshal(data, &out))

	m, ok := out.(map[any]any)
	require.True(t, ok, "expected decoded generic map, got %T", out)
	require.Equal(t, "sandbox-1", m["name"])
}

func TestNeedsBlobOffload(t *testing.T) {
	small := make([]byte, cborBlobThreshold-1)
	large := make([]byte, cborBlobThreshold+1)

	require.False(t, needsBlobOffload(small))
	require.True(t, needsBlobOffload(large))
}
