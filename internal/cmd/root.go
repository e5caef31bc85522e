package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "diamondgrid",
	Short: "A procedural diamond grid image generator",
	Long: `diamondgrid renders a brick-offset grid of rhombus diamonds. Each cell holds a
stack of nested, noise-perturbed diamonds colored from a randomly chosen palette.

Every image is fully determined by its seed: rendering the same seed with the
same parameters reproduces it exactly.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	pf.String("output-dir", "./renders", "Output directory for rendered images")
	pf.BoolP("verbose", "v", false, "Enable verbose logging")

	// Image parameters shared by render and serve.
	pf.String("size", "2048,2048", "Canvas size in pixels: width,height")
	pf.String("grid", "13,22", "Grid size: columns,rows (both at least 2)")
	pf.Float64("noise-frequency", 0.04, "Noise frequency; lower is smoother")
	pf.Float64("noise-amplitude", 0.8, "Noise amplitude in [0,1]")
	pf.Int("palette-size", 5, "Colors taken from the chosen palette (also the stack depth)")
	pf.String("palettes", "", "Palette file (.json, .yaml or .toml); empty uses the built-in palettes")
	pf.String("noise", "simplex", "Noise field: simplex or perlin")
	pf.String("renderer", "vector", "PNG renderer: vector or gg")
	pf.String("background", "", "Background color as #rrggbb; empty is transparent")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"output-dir", "output-dir"},
		{"verbose", "verbose"},
		{"render.size", "size"},
		{"render.grid", "grid"},
		{"render.noise_frequency", "noise-frequency"},
		{"render.noise_amplitude", "noise-amplitude"},
		{"render.palette_size", "palette-size"},
		{"render.palettes", "palettes"},
		{"render.noise", "noise"},
		{"render.renderer", "renderer"},
		{"render.background", "background"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, pf.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("DIAMONDGRID")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
