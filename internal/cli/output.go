package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/hbjs97/nodeswitch/internal/doctor"
	"github.com/hbjs97/nodeswitch/internal/hook"
)

// printer는 stderr 안내 메시지 출력기다. TTY가 아니면 색상 없이 출력된다.
type printer struct {
	w      io.Writer
	quiet  bool
	prefix lipgloss.Style
	info   lipgloss.Style
	warn   lipgloss.Style
}

func newPrinter(w io.Writer, quiet bool) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:      w,
		quiet:  quiet,
		prefix: r.NewStyle().Foreground(lipgloss.Color("141")).Bold(true),
		info:   r.NewStyle().Foreground(lipgloss.Color("114")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// Info는 전환 안내를 출력한다. quiet면 출력하지 않는다.
func (p *printer) Info(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.prefix.Render("nodeswitch:"), p.info.Render(msg))
}

// Warn은 경고를 출력한다. quiet여도 출력한다.
func (p *printer) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.prefix.Render("nodeswitch:"), p.warn.Render("경고: "+msg))
}

func (p *printer) Messages(msgs []hook.Message) {
	for _, m := range msgs {
		switch m.Level {
		case hook.LevelWarn:
			p.Warn(m.Text)
		default:
			p.Info(m.Text)
		}
	}
}

// printDiagResults는 진단 결과 목록을 출력한다.
func printDiagResults(w io.Writer, results []doctor.DiagResult) {
	for _, r := range results {
		fmt.Fprintf(w, "  [%s] %s: %s\n", statusIcon(r.Status), r.Name, r.Message)
		if r.Fix != "" {
			fmt.Fprintf(w, "      Fix: %s\n", r.Fix)
		}
	}
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return "OK"
	case doctor.StatusWarn:
		return "!!"
	case doctor.StatusFail:
		return "FAIL"
	default:
		return "??"
	}
}
