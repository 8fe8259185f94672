// SPDX-License-Identifier: EPL-2.0

package main

import (
	"path/filepath"

	"github.com/ik5/capo"
	"github.com/ik5/capo/internal/player"
	"github.com/spf13/cobra"
)

var playerCmd = &cobra.Command{
	Use:   "player FILE",
	Short: "Play a file with interactive controls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _, err := capo.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

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

		if err := src.Bind(in); err != nil {
			return err
		}

		return player.Run(cmd.Context(), filepath.Base(args[0]), src)
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
}
