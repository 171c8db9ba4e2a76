package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysUTF16(t *testing.T) {
	// U+1D306 (𝌆, outside the BMP) encodes as a surrogate pair with lead
	// 0xD834, which sorts before U+FF01 (！) in UTF-16 but after it in
	// UTF-8 byte order.
	out, err := Marshal(map[string]any{
		"\U0001D306": int64(1),
		"！":     int64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"𝌆":1,"！":2}`, string(out))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := Marshal("<a> & </a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(out))
}

func TestMarshal_FloatShortestForm(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"}, // -0 canonicalizes to 0
		{1, "1"},
		{0.5, "0.5"},
		{1.0 / 3.0, "0.3333333333333333"},
		{-2.25, "-2.25"},
	}
	for _, tc := range cases {
		out, err := Marshal(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(out), "marshal %v", tc.in)
	}
}

func TestMarshal_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Marshal(v)
		assert.Error(t, err, "marshal %v must fail", v)
	}
}

func TestMarshal_RejectsNil(t *testing.T) {
	_, err := Marshal(nil)
	require.Error(t, err)
	_, err = Marshal(map[string]any{"k": nil})
	require.Error(t, err)
}

func TestMarshal_Deterministic(t *testing.T) {
	v := map[string]any{
		"steps": []any{
			map[string]any{"kind": "eval", "slot": int64(3)},
			map[string]any{"kind": "write_state", "slot": int64(0)},
		},
		"buf": []float64{1, 2.5, 3},
	}
	a, err := Marshal(v)
	require.NoError(t, err)
	b, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHash_DomainSeparation(t *testing.T) {
	h1, err := Hash(DomainProgram, "x")
	require.NoError(t, err)
	h2, err := Hash(DomainFrame, "x")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "same value under different domains must differ")
	assert.Len(t, h1, 64)
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301) must serialize
	// identically.
	composed, err := Marshal("café")
	require.NoError(t, err)
	decomposed, err := Marshal("café")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}
