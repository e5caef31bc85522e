package diamond

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometry(t *testing.T) {
	tests := []struct {
		name                  string
		width, height         int
		columns, rows         int
		wantErr               bool
		wantWidth, wantHeight float64
	}{
		{name: "reference", width: 2048, height: 2048, columns: 13, rows: 22, wantWidth: 2048.0 / 12, wantHeight: 4096.0 / 21},
		{name: "minimal grid", width: 100, height: 50, columns: 2, rows: 2, wantWidth: 100, wantHeight: 100},
		{name: "one column", width: 100, height: 100, columns: 1, rows: 4, wantErr: true},
		{name: "one row", width: 100, height: 100, columns: 4, rows: 1, wantErr: true},
		{name: "zero width", width: 0, height: 100, columns: 4, rows: 4, wantErr: true},
		{name: "negative height", width: 100, height: -1, columns: 4, rows: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGeometry(tt.width, tt.height, tt.columns, tt.rows)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantWidth, g.DiamondWidth, 1e-9)
			assert.InDelta(t, tt.wantHeight, g.DiamondHeight, 1e-9)
			assert.Equal(t, tt.columns*tt.rows, g.Cells())
		})
	}
}

func TestAnchorStaggerLaw(t *testing.T) {
	g, err := NewGeometry(2048, 2048, 13, 22)
	require.NoError(t, err)

	for col := 0; col < g.Columns; col++ {
		for row := 0; row < g.Rows; row++ {
			x, y := g.Anchor(col, row)
			want := float64(col) * g.DiamondWidth
			if row%2 == 1 {
				want += g.DiamondWidth / 2
			}
			assert.Equal(t, want, x, "col=%d row=%d", col, row)
			assert.Equal(t, float64(row+1)*g.DiamondHeight/2, y, "col=%d row=%d", col, row)
		}
	}

	x, y := g.Anchor(0, 0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, g.DiamondHeight/2, y)

	// The last row's bottom vertices reach past the canvas by half a diamond.
	_, y = g.Anchor(0, g.Rows-1)
	assert.InDelta(t, float64(g.Height)+g.DiamondHeight/2, y, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	mutate := func(f func(*Params)) Params {
		p := DefaultParams()
		f(&p)
		return p
	}

	bad := map[string]Params{
		"columns":        mutate(func(p *Params) { p.Columns = 1 }),
		"rows":           mutate(func(p *Params) { p.Rows = 0 }),
		"width":          mutate(func(p *Params) { p.Width = 0 }),
		"palette size":   mutate(func(p *Params) { p.PaletteSize = 0 }),
		"frequency":      mutate(func(p *Params) { p.NoiseFrequency = 0 }),
		"amplitude high": mutate(func(p *Params) { p.NoiseAmplitude = 1.5 }),
		"amplitude low":  mutate(func(p *Params) { p.NoiseAmplitude = -0.1 }),
	}
	for name, p := range bad {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)
		})
	}
}
