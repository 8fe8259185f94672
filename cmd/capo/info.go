// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ik5/capo"
	"github.com/ik5/capo/audio"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("86")).
	Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Print format details of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoded, err := capo.DecodeFiles(cmd.Context(), args)
		if err != nil {
			return err
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("FILE", "FORMAT", "RATE", "CHANNELS", "DURATION", "SIZE", "DECODED").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})

		for _, d := range decoded {
			size := "-"
			if st, err := os.Stat(d.Path); err == nil {
				size = audio.FormatBytes(uint64(st.Size()))
			}

			t.Row(
				d.Path,
				d.Hint.String(),
				strconv.Itoa(d.Pcm.SampleRate),
				d.Pcm.Channels.String(),
				audio.FormatDuration(d.Pcm.Clip().Duration()),
				size,
				audio.FormatBytes(d.Pcm.SizeBytes()),
			)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return err
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
