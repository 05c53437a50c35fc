// ABOUTME: devices command
// ABOUTME: Prints the output device catalog as a table
package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	defaultStyle = cellStyle.Foreground(lipgloss.Color("#00ff9f"))
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			devices, err := s.env.OutputDevices()
			if err != nil {
				return err
			}
			def, err := s.env.DefaultOutputDevice()
			if err != nil {
				return err
			}
			return renderDevices(cmd.OutOrStdout(), devices, def)
		},
	}
}

// renderDevices writes the catalog with the default device marked
func renderDevices(w io.Writer, devices []audio.Device, def audio.Device) error {
	defaultRow := -1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("", "INDEX", "NAME", "CHANNELS", "RATE", "LATENCY LOW/HIGH")

	for i, d := range devices {
		mark := ""
		if d.Index == def.Index {
			mark = "*"
			defaultRow = i
		}
		t.Row(
			mark,
			strconv.Itoa(d.Index),
			d.Name,
			strconv.Itoa(d.MaxOutputChannels),
			fmt.Sprintf("%.0f", d.DefaultSampleRate),
			fmt.Sprintf("%s / %s", d.DefaultLowOutputLatency, d.DefaultHighOutputLatency),
		)
	}

	t.StyleFunc(func(row, _ int) lipgloss.Style {
		switch row {
		case table.HeaderRow:
			return headerStyle
		case defaultRow:
			return defaultStyle
		default:
			return cellStyle
		}
	})

	_, err := fmt.Fprintln(w, t.Render())
	if err != nil {
		return err
	}
	if defaultRow < 0 {
		_, err = fmt.Fprintf(w, "default device %s has no output channels\n", def)
	}
	return err
}
