/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

var watchRefresh string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live-tail the ledger",
	Long: `Launch a full-screen terminal UI that polls the ledger on a fixed
interval and renders the most recent entries, newest first.

Examples:
  cortex watch
  cortex watch --refresh 1s`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchRefresh, "refresh", "r", "2s", "Refresh interval (e.g. 1s, 5s)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dur, err := time.ParseDuration(watchRefresh)
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}
	m := watchModel{refreshInt: dur}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

var (
	watchStyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginLeft(1)
	watchStyleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	watchStyleFooter = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	watchStyleSeq    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	watchStyleKind   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	watchStyleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type watchTickMsg struct{}

type watchEntriesMsg struct {
	entries []v1.LedgerEntry
	err     error
}

type watchModel struct {
	refreshInt time.Duration
	entries    []v1.LedgerEntry
	err        error
	width      int
	height     int
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(watchLoadEntries, watchTick(m.refreshInt))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case watchTickMsg:
		return m, tea.Batch(watchLoadEntries, watchTick(m.refreshInt))
	case watchEntriesMsg:
		m.entries = msg.entries
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m watchModel) View() string {
	header := watchStyleTitle.Render("cortex watch") + "  " + watchStyleSubtle.Render(dataDir)
	if m.err != nil {
		return header + "\n\n" + watchStyleErr.Render(m.err.Error()) + "\n"
	}

	rows := m.entries
	maxRows := m.height - 5
	if maxRows < 1 {
		maxRows = 20
	}
	if len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}

	var body string
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		body += fmt.Sprintf("%s  %s  %s  %s\n",
			watchStyleSeq.Render(fmt.Sprintf("#%d", e.Seq)),
			e.UTCTimestamp.Format("15:04:05"),
			watchStyleKind.Render(padRight(e.EventKind, 20)),
			truncate(e.SubjectRef, 48),
		)
	}

	footer := watchStyleFooter.Render(fmt.Sprintf("%d entries  ·  refresh %s  ·  q to quit", len(m.entries), m.refreshInt))
	return header + "\n\n" + body + "\n" + footer
}

func padRight(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}

func watchTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func watchLoadEntries() tea.Msg {
	entries, err := eng.Ledger.All()
	return watchEntriesMsg{entries: entries, err: err}
}
