// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/ik5/capo"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/audio/beepio"
	"github.com/ik5/capo/formats/wav"
	"github.com/spf13/cobra"
)

var renderOpts struct {
	channels int
	limit    time.Duration
	pad      time.Duration
}

var renderCmd = &cobra.Command{
	Use:   "render IN OUT.wav",
	Short: "Convert a file to 16-bit PCM WAV",
	Long: `render resamples and remixes IN to the requested layout and writes it as
16-bit PCM WAV at --rate (default 44100 Hz). --limit cuts the input short
and --pad appends silence.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		rate := 44100
		if cmd.Flags().Changed("rate") {
			rate = sampleRate
		}
		if rate <= 0 || renderOpts.channels < 1 || renderOpts.channels > 2 {
			return fmt.Errorf("render: invalid target %d Hz, %d channels", rate, renderOpts.channels)
		}

		src, hint, err := capo.Open(in)
		if err != nil {
			return err
		}
		defer src.Close()

		trimmed, check := trim(src, renderOpts.limit, renderOpts.pad)
		pcm16, err := audio.Render16(trimmed, rate, renderOpts.channels, 4096)
		if err == nil {
			err = check()
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", in, err)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := wav.Encode(f, rate, renderOpts.channels, pcm16); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		log.Info("rendered",
			"in", in,
			"format", hint,
			"out", out,
			"duration", audio.FramesToDuration(len(pcm16)/renderOpts.channels, rate),
		)

		return nil
	},
}

func init() {
	renderCmd.Flags().IntVarP(&renderOpts.channels, "channels", "c", 2, "output channels, 1 or 2")
	renderCmd.Flags().DurationVar(&renderOpts.limit, "limit", 0, "keep at most this much of the input")
	renderCmd.Flags().DurationVar(&renderOpts.pad, "pad", 0, "silence appended to the output")
	rootCmd.AddCommand(renderCmd)
}

// trim cuts src to limit and appends pad of silence through beep. The
// returned check reports a read error the beep chain swallowed.
func trim(src audio.Source, limit, pad time.Duration) (audio.Source, func() error) {
	if limit <= 0 && pad <= 0 {
		return src, func() error { return nil }
	}

	st := beepio.NewStreamer(src)
	format := st.Format()

	var s beep.Streamer = st
	if limit > 0 {
		s = beep.Take(format.SampleRate.N(limit), s)
	}
	if pad > 0 {
		s = beep.Seq(s, beep.Silence(format.SampleRate.N(pad)))
	}

	return beepio.FromStreamer(s, format), st.Err
}
