// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/caarlos0/ctrlc"
	"github.com/gopxl/beep/v2"
	"github.com/ik5/capo/audio/beepio"
	"github.com/spf13/cobra"
)

var toneOpts struct {
	freq     float64
	duration time.Duration
	gain     float32
}

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Play a sine tone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if toneOpts.freq <= 0 || toneOpts.duration <= 0 {
			return errors.New("tone: --freq and --duration must be positive")
		}

		dev, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer dev.Close()

		src, err := dev.NewStreamSource()
		if err != nil {
			return err
		}
		defer src.Close()

		format := beep.Format{
			SampleRate:  beep.SampleRate(dev.SampleRate()),
			NumChannels: 1,
			Precision:   2,
		}
		tone := beep.Take(format.SampleRate.N(toneOpts.duration), sine(format.SampleRate, toneOpts.freq))
		if err := src.Bind(beepio.FromStreamer(tone, format)); err != nil {
			return err
		}
		src.SetGain(toneOpts.gain)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		return ctrlc.Default.Run(ctx, func() error {
			src.Play()
			return src.WaitUntilEnded(ctx)
		})
	},
}

func init() {
	toneCmd.Flags().Float64VarP(&toneOpts.freq, "freq", "f", 440, "frequency in Hz")
	toneCmd.Flags().DurationVarP(&toneOpts.duration, "duration", "d", 2*time.Second, "length of the tone")
	toneCmd.Flags().Float32VarP(&toneOpts.gain, "gain", "g", 0.5, "source gain between 0 and 1")
	rootCmd.AddCommand(toneCmd)
}

// sine generates an endless tone at freq.
func sine(rate beep.SampleRate, freq float64) beep.Streamer {
	step := freq / float64(rate)
	phase := 0.0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := math.Sin(2 * math.Pi * phase)
			samples[i][0], samples[i][1] = v, v
			phase += step
			if phase >= 1 {
				phase--
			}
		}
		return len(samples), true
	})
}
