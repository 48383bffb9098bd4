// Package tui renders diskalloc's live watch dashboard: a Bubbletea
// model that polls a PageAllocator's free list and draws each free span
// as a bar with its size and offset; live blocks are not drawn.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arenafs/diskalloc/internal/pagealloc"
)

var (
	colorFree = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
	colorDim  = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
)

const pollInterval = 500 * time.Millisecond

type dashboardKeyMap struct {
	Quit key.Binding
}

func (k dashboardKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Quit} }

// tickMsg drives the periodic re-read of free-list state.
type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Dashboard is the Bubbletea model backing `diskalloc watch`.
type Dashboard struct {
	pa     *pagealloc.PageAllocator
	keys   dashboardKeyMap
	width  int
	height int
	ticks  int
}

// NewDashboard builds a dashboard over an already-constructed allocator.
// Ownership of pa stays with the caller; the dashboard only reads it.
func NewDashboard(pa *pagealloc.PageAllocator) Dashboard {
	return Dashboard{
		pa: pa,
		keys: dashboardKeyMap{
			Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

func (d Dashboard) Init() tea.Cmd {
	return tick()
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil
	case tickMsg:
		d.ticks++
		return d, tick()
	case tea.KeyMsg:
		if key.Matches(msg, d.keys.Quit) {
			return d, tea.Quit
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	var b strings.Builder
	b.WriteString("  diskalloc watch — PageAllocator free list\n\n")

	spans := d.pa.DumpFreeList()
	available := d.pa.Available()
	nodes := d.pa.FreeNodeCount()

	fmt.Fprintf(&b, "  available: %d bytes   free nodes: %d   polls: %d\n\n", available, nodes, d.ticks)

	if len(spans) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render("  (no free spans — region fully allocated)"))
		b.WriteString("\n")
	} else {
		for _, s := range spans {
			bar := barFor(s.Size)
			fmt.Fprintf(&b, "  %s %8d bytes at offset %d\n",
				lipgloss.NewStyle().Foreground(colorFree).Render(bar), s.Size, s.Offset)
		}
	}

	b.WriteString("\n  ")
	b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

// barFor renders a free span's relative size as a run of block
// characters, capped so a single huge tail span doesn't swamp the
// terminal.
func barFor(size int) string {
	const maxBlocks = 40
	n := size / 256
	if n > maxBlocks {
		n = maxBlocks
	}
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}
