// Package progressui renders live progress for long-running CLI
// operations (full/incremental indexing) as a bubbletea spinner when
// stderr is a terminal, falling back to silence otherwise so piped
// output and CI logs stay clean.
package progressui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// IsTTY reports whether w is a terminal file descriptor, following the
// same check bubbletea programs need before attaching a renderer.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type tickMsg struct{}

type statUpdateMsg struct {
	processed int
	skipped   int
	failed    int
	current   string
}

type doneMsg struct {
	summary string
}

type model struct {
	label     string
	spin      spinner.Model
	processed int
	skipped   int
	failed    int
	current   string
	summary   string
	done      bool
}

func newModel(label string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{label: label, spin: s}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statUpdateMsg:
		m.processed, m.skipped, m.failed, m.current = msg.processed, msg.skipped, msg.failed, msg.current
		return m, nil
	case doneMsg:
		m.done = true
		m.summary = msg.summary
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return m.summary + "\n"
	}
	line := m.spin.View() + " " + labelStyle.Render(m.label) + " " +
		countStyle.Render("processed="+itoa(m.processed)+" skipped="+itoa(m.skipped))
	if m.failed > 0 {
		line += " " + errStyle.Render("failed="+itoa(m.failed))
	}
	if m.current != "" {
		line += "  " + countStyle.Render(m.current)
	}
	return line
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Reporter drives a background bubbletea program from indexing
// progress callbacks. Safe to call Update/Stop after Stop returns
// (they become no-ops).
type Reporter struct {
	program *tea.Program
	done    chan struct{}
}

// Start launches the spinner UI against out, labeled with label (e.g.
// "indexing"). Returns nil if out is not a terminal; callers treat a
// nil *Reporter as "no UI, plain output only".
func Start(out *os.File, label string) *Reporter {
	if !IsTTY(out) {
		return nil
	}
	p := tea.NewProgram(newModel(label), tea.WithOutput(out))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()
	return &Reporter{program: p, done: done}
}

// Update reports incremental progress. Nil-safe.
func (r *Reporter) Update(processed, skipped, failed int, current string) {
	if r == nil {
		return
	}
	r.program.Send(statUpdateMsg{processed: processed, skipped: skipped, failed: failed, current: current})
}

// Stop finalizes the UI with summary and waits for the render loop to
// exit. Nil-safe.
func (r *Reporter) Stop(summary string) {
	if r == nil {
		return
	}
	r.program.Send(doneMsg{summary: summary})
	<-r.done
}
