package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sire/internal/calltree"
	"sire/internal/config"
	"sire/internal/observ"
	"sire/internal/sirdoc"
)

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on":
		return colorOn, nil
	case "off":
		return colorOff, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func shouldColor(mode colorMode, f *os.File) bool {
	switch mode {
	case colorOn:
		return true
	case colorOff:
		return false
	default:
		return f != nil && isTerminal(f)
	}
}

// settings is the merged view of sire.toml and the persistent flags.
type settings struct {
	cfg     config.Config
	color   bool
	quiet   bool
	noCache bool
	timer   *observ.Timer
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	pf := cmd.Root().PersistentFlags()

	explicit, err := pf.GetString("config")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return settings{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Resolve(explicit, wd)
	if err != nil {
		return settings{}, err
	}
	if pf.Changed("lenient") {
		cfg.Reconstruct.Lenient, _ = pf.GetBool("lenient")
	}
	if pf.Changed("color") {
		cfg.Output.Color, _ = pf.GetString("color")
	}
	mode, err := readColorMode(cfg.Output.Color)
	if err != nil {
		return settings{}, err
	}

	s := settings{cfg: cfg, color: shouldColor(mode, os.Stdout)}
	s.quiet, _ = pf.GetBool("quiet")
	s.noCache, _ = pf.GetBool("no-cache")
	if timings, _ := pf.GetBool("timings"); timings {
		s.timer = observ.NewTimer()
	}
	return s, nil
}

func (s settings) buildOptions() sirdoc.Options {
	return sirdoc.Options{
		Reconstruct: calltree.Options{
			Lenient:    s.cfg.Reconstruct.Lenient,
			MatchNames: s.cfg.Reconstruct.MatchNames,
		},
		CheckRefs: s.cfg.Reconstruct.CheckRefs,
	}
}

func (s settings) printTimings(cmd *cobra.Command) {
	if s.timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
}
