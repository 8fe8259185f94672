// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/caarlos0/ctrlc"
	"github.com/charmbracelet/log"
	"github.com/ik5/capo"
	"github.com/ik5/capo/engine"
	"github.com/spf13/cobra"
)

var playOpts struct {
	loop   bool
	gain   float32
	stream bool
}

var playCmd = &cobra.Command{
	Use:   "play FILE...",
	Short: "Play audio files one after another",
	Long: `play decodes every file up front, concurrently, and plays them in order.
With --stream the files are decoded while they play instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer dev.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		return ctrlc.Default.Run(ctx, func() error {
			if playOpts.stream {
				return streamFiles(ctx, dev, args)
			}
			return playFiles(ctx, dev, args)
		})
	},
}

func init() {
	playCmd.Flags().BoolVarP(&playOpts.loop, "loop", "l", false, "loop the last file until interrupted")
	playCmd.Flags().Float32VarP(&playOpts.gain, "gain", "g", 1, "source gain between 0 and 1")
	playCmd.Flags().BoolVarP(&playOpts.stream, "stream", "s", false, "decode while playing")
	rootCmd.AddCommand(playCmd)
}

func playFiles(ctx context.Context, dev *engine.Device, paths []string) error {
	decoded, err := capo.DecodeFiles(ctx, paths)
	if err != nil {
		return err
	}

	src, err := dev.NewSoundSource()
	if err != nil {
		return err
	}
	defer src.Close()

	for i, d := range decoded {
		if err := src.Bind(d.Pcm.Clip()); err != nil {
			return fmt.Errorf("%s: %w", d.Path, err)
		}
		log.Info("playing", "file", d.Path, "format", d.Hint, "duration", src.Duration())

		if err := playOne(ctx, src, i == len(decoded)-1); err != nil {
			return err
		}
	}

	return nil
}

func streamFiles(ctx context.Context, dev *engine.Device, paths []string) error {
	src, err := dev.NewStreamSource()
	if err != nil {
		return err
	}
	defer src.Close()

	for i, path := range paths {
		in, hint, err := capo.Open(path)
		if err != nil {
			return err
		}
		if err := src.Bind(in); err != nil {
			_ = in.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Info("streaming", "file", path, "format", hint, "duration", src.Duration())

		err = playOne(ctx, src, i == len(paths)-1)
		src.Unbind()
		_ = in.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// playOne plays the bound source to its end. The last file loops when
// --loop is set, in which case only ctx ends it.
func playOne(ctx context.Context, src engine.Source, last bool) error {
	src.SetGain(playOpts.gain)
	src.SetLooping(playOpts.loop && last)
	src.Play()

	if src.IsLooping() {
		<-ctx.Done()
		src.Stop()
		return ctx.Err()
	}

	if err := src.WaitUntilEnded(ctx); err != nil {
		src.Stop()
		return err
	}

	return nil
}
