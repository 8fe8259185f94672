// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/engine"
	"github.com/spf13/cobra"

	// output backends register themselves
	_ "github.com/ik5/capo/backend/malgo"
	_ "github.com/ik5/capo/backend/null"
	_ "github.com/ik5/capo/backend/oto"
	_ "github.com/ik5/capo/backend/soft"
)

var (
	cfgFile     string
	backendName string
	sampleRate  int
	fallback    bool
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "capo",
	Short: "Streaming audio playback engine",
	Long: `capo decodes WAV, MP3, FLAC, Ogg Vorbis and AIFF files and plays them
through a buffered streaming engine.

The output device is chosen with --backend or a YAML config file:

  backend: oto
  sample_rate: 48000
  channels: 2
  fallback: true`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML device config file")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", string(backend.Auto),
		fmt.Sprintf("output backend %v", backend.Available()))
	rootCmd.PersistentFlags().IntVarP(&sampleRate, "rate", "r", 0, "device sample rate in Hz (default from config)")
	rootCmd.PersistentFlags().BoolVar(&fallback, "fallback", false, "play on a silent device when the backend fails")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "debug logging")
}

// deviceConfig merges the config file with the flags set on cmd.
func deviceConfig(cmd *cobra.Command) (backend.Config, error) {
	cfg := backend.DefaultConfig()
	if cfgFile != "" {
		loaded, err := backend.LoadConfig(cfgFile)
		if err != nil {
			return backend.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend.Name(backendName)
	}
	if flags.Changed("rate") {
		cfg.SampleRate = sampleRate
	}
	if flags.Changed("fallback") {
		cfg.Fallback = fallback
	}

	return cfg, cfg.Validate()
}

func openDevice(cmd *cobra.Command) (*engine.Device, error) {
	cfg, err := deviceConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := log.Default().With("component", "engine")

	return engine.NewDevice(cfg, engine.WithLogger(logger))
}
