package main

import (
	"wishlist/internal/client"
	"wishlist/internal/mirror"
	"wishlist/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and edit the wishlist interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var p *tea.Program

		// The mirror reports changes from the event loop itself, so the send
		// must not block it.
		refresh := func() {
			if p != nil {
				go p.Send(tui.RefreshMsg{})
			}
		}

		// the screen owns the terminal, so the mirror keeps quiet
		m := mirror.New(
			client.New(cfg.ServerURL, client.WithTimeout(cfg.RequestTimeout)),
			mirror.WithErrorTTL(cfg.ErrorTTL),
			mirror.WithOnChange(refresh),
		)

		p = tea.NewProgram(tui.New(m, cfg.RequestTimeout), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err := p.Run()
		return err
	},
}
