//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// DescriptorsRequest is the optional JSON argument of diamondgridDescriptors.
type DescriptorsRequest struct {
	Seed   string          `json:"seed"`
	Noise  string          `json:"noise"`
	Params *diamond.Params `json:"params,omitempty"`
}

// DiamondJSON is one descriptor with its resolved fill color.
type DiamondJSON struct {
	diamond.Descriptor
	Fill string `json:"fill"`
}

type DescriptorsResponse struct {
	Seed     string        `json:"seed"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Palette  []string      `json:"palette"`
	Diamonds []DiamondJSON `json:"diamonds"`
}

var palettes []palette.Palette

// descriptors is called from JavaScript with either a bare seed or a JSON
// request and returns the draw list as a JSON string.
func descriptors(this js.Value, args []js.Value) interface{} {
	req := DescriptorsRequest{}
	if len(args) > 0 && args[0].Type() == js.TypeString {
		s := args[0].String()
		if err := json.Unmarshal([]byte(s), &req); err != nil {
			req.Seed = s
		}
	}

	opts := pipeline.DefaultOptions()
	opts.Noise = rng.NoiseKind(req.Noise)
	if req.Params != nil {
		opts.Params = *req.Params
	}

	gen, err := pipeline.NewGenerator(opts, palettes, nil)
	if err != nil {
		return errorJSON(err)
	}

	seed := rng.ParseSeed(req.Seed)
	grid, err := gen.Build(seed)
	if err != nil {
		return errorJSON(err)
	}

	resp := DescriptorsResponse{
		Seed:     seed.String(),
		Width:    opts.Params.Width,
		Height:   opts.Params.Height,
		Palette:  grid.Palette.Hex(),
		Diamonds: make([]DiamondJSON, 0, grid.Len()),
	}
	for _, d := range grid.Descriptors {
		resp.Diamonds = append(resp.Diamonds, DiamondJSON{Descriptor: d, Fill: d.Hex()})
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return errorJSON(err)
	}
	return string(out)
}

func errorJSON(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}

func main() {
	var err error
	palettes, err = palette.Default()
	if err != nil {
		fmt.Println("diamondgrid: failed to load palettes:", err)
		return
	}

	js.Global().Set("diamondgridDescriptors", js.FuncOf(descriptors))

	fmt.Println("diamondgrid WASM module loaded")
	select {}
}
