package colorutil

import (
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetHSLZeroIsIdentity(t *testing.T) {
	for _, hex := range []string{"#69d2e7", "#fa6900", "#542437", "#ffffff", "#000000", "#808080"} {
		c, err := ParseHex(hex)
		require.NoError(t, err)

		got := OffsetHSL(c, 0, 0, 0)
		assert.InDelta(t, int(c.R), int(got.R), 1, hex)
		assert.InDelta(t, int(c.G), int(got.G), 1, hex)
		assert.InDelta(t, int(c.B), int(got.B), 1, hex)
		assert.Equal(t, uint8(255), got.A)
	}
}

func TestOffsetHSLHueWraps(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}

	tests := []struct {
		name   string
		offset float64
		want   color.NRGBA
	}{
		{"full turn", 360, color.NRGBA{R: 255, A: 255}},
		{"green", 120, color.NRGBA{G: 255, A: 255}},
		{"blue", 240, color.NRGBA{B: 255, A: 255}},
		{"negative wraps to blue", -120, color.NRGBA{B: 255, A: 255}},
		{"past a turn", 480, color.NRGBA{G: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OffsetHSL(red, tt.offset, 0, 0))
		})
	}
}

func TestOffsetHSLClampsSaturationAndLightness(t *testing.T) {
	base := color.NRGBA{R: 105, G: 210, B: 231, A: 255}

	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, OffsetHSL(base, 0, 0, 100))
	assert.Equal(t, color.NRGBA{A: 255}, OffsetHSL(base, 0, 0, -100))

	gray := OffsetHSL(base, 0, -100, 0)
	assert.Equal(t, gray.R, gray.G)
	assert.Equal(t, gray.G, gray.B)

	// Saturation cannot exceed 100%: pushing further equals pushing to the limit.
	assert.Equal(t, OffsetHSL(base, 0, 100, 0), OffsetHSL(base, 0, 200, 0))
}

func TestOffsetHSLMatchesColorful(t *testing.T) {
	base, err := ParseHex("#c02942")
	require.NoError(t, err)

	h, s, l := colorful.Color{R: float64(base.R) / 255, G: float64(base.G) / 255, B: float64(base.B) / 255}.Hsl()
	want := colorful.Hsl(wrapHue(h+200), s-0.3, l+0.1).Clamped()
	r, g, b := want.RGB255()

	got := OffsetHSL(base, 200, -30, 10)
	assert.InDelta(t, int(r), int(got.R), 1)
	assert.InDelta(t, int(g), int(got.G), 1)
	assert.InDelta(t, int(b), int(got.B), 1)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#fe4365")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xfe, G: 0x43, B: 0x65, A: 255}, c)
	assert.Equal(t, "#fe4365", Hex(c))

	short, err := ParseHex("#fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, short)

	_, err = ParseHex("fe4365")
	assert.Error(t, err)
	_, err = ParseHex("#zzzzzz")
	assert.Error(t, err)
}
