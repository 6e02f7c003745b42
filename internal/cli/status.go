package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/hook"
	"github.com/hbjs97/nodeswitch/internal/resolver"
	"github.com/hbjs97/nodeswitch/internal/state"
	"github.com/hbjs97/nodeswitch/internal/version"
)

func (a *App) newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "현재 디렉토리에서 hook이 선택할 버전을 전환 없이 표시한다",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runStatus(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), dir, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "JSON으로 출력")
	return cmd
}

// statusJSON은 status --json 출력 형식이다.
type statusJSON struct {
	Dir          string            `json:"dir"`
	Current      currentJSON       `json:"current"`
	Node         *targetJSON       `json:"node,omitempty"`
	Pnpm         *targetJSON       `json:"pnpm,omitempty"`
	Declarations []declarationJSON `json:"declarations"`
	Warnings     []string          `json:"warnings"`
}

type currentJSON struct {
	Node string `json:"node"`
	Pnpm string `json:"pnpm"`
}

type targetJSON struct {
	Version string `json:"version"`
	Spec    string `json:"spec,omitempty"`
	Reason  string `json:"reason"`
	File    string `json:"file,omitempty"`
	Switch  bool   `json:"switch"`
}

type declarationJSON struct {
	Source string `json:"source"`
	File   string `json:"file"`
	Dir    string `json:"dir"`
	Node   string `json:"node,omitempty"`
	Pnpm   string `json:"pnpm,omitempty"`
}

func (a *App) runStatus(ctx context.Context, stdout, stderr io.Writer, dir string, jsonOut bool) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if dir == "" {
		dir, err = a.fs().Getwd()
		if err != nil {
			return fmt.Errorf("cli.status: %w", err)
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	p := a.newPipeline(cfg, a.logger(cfg, stderr))
	report := p.hook.Plan(ctx, dir)
	current := p.tracker.Get()

	if jsonOut {
		if err := writeStatusJSON(stdout, report, current); err != nil {
			return err
		}
		return statusError(report)
	}

	fmt.Fprintf(stdout, "디렉토리: %s\n", report.Dir)
	printTarget(stdout, "node", current.Node, report.Resolution.Node, report.Decision.SwitchNode)
	if cfg.IsManagePnpm() {
		printTarget(stdout, "pnpm", current.PackageManager, report.Resolution.PackageManager, report.Decision.SwitchPackageManager)
	}

	if len(report.Declarations) == 0 {
		fmt.Fprintln(stdout, "선언 파일 없음")
	} else {
		fmt.Fprintln(stdout, "선언:")
		for _, d := range report.Declarations {
			fmt.Fprintf(stdout, "  %-12s %s", d.Source, d.File)
			if d.Node.Kind != version.KindNone {
				fmt.Fprintf(stdout, "  node=%s", d.Node.Raw)
			}
			if d.PackageManager.Kind != version.KindNone {
				fmt.Fprintf(stdout, "  pnpm=%s", d.PackageManager.Raw)
			}
			fmt.Fprintln(stdout)
		}
	}

	for _, m := range report.Messages {
		if m.Level == hook.LevelWarn {
			fmt.Fprintf(stdout, "경고: %s\n", m.Text)
		}
	}
	return statusError(report)
}

// statusError는 첫 번째 판정 경고를 반환한다. 잘못된 선언이나 설치되지 않은 버전은 종료 코드로 구분된다.
func statusError(report hook.Report) error {
	if len(report.Resolution.Warnings) == 0 {
		return nil
	}
	return fmt.Errorf("cli.status: %w", report.Resolution.Warnings[0])
}

func printTarget(w io.Writer, name, current string, t resolver.Target, switching bool) {
	switch {
	case t.Version == "":
		fmt.Fprintf(w, "%s: %s (유지)\n", name, current)
	case switching:
		fmt.Fprintf(w, "%s: %s -> %s (%s) 전환 예정\n", name, current, t.Version, describeReason(t))
	default:
		fmt.Fprintf(w, "%s: %s (%s) 일치\n", name, t.Version, describeReason(t))
	}
}

func describeReason(t resolver.Target) string {
	if t.File == "" {
		return t.Reason
	}
	return t.Reason + ", " + t.File
}

func writeStatusJSON(w io.Writer, r hook.Report, current state.ActiveState) error {
	out := statusJSON{
		Dir:          r.Dir,
		Current:      currentJSON{Node: current.Node, Pnpm: current.PackageManager},
		Declarations: make([]declarationJSON, 0, len(r.Declarations)),
		Warnings:     make([]string, 0),
	}
	if t := r.Resolution.Node; t.Version != "" {
		out.Node = &targetJSON{Version: t.Version, Spec: t.Spec.Raw, Reason: t.Reason, File: t.File, Switch: r.Decision.SwitchNode}
	}
	if t := r.Resolution.PackageManager; t.Version != "" {
		out.Pnpm = &targetJSON{Version: t.Version, Spec: t.Spec.Raw, Reason: t.Reason, File: t.File, Switch: r.Decision.SwitchPackageManager}
	}
	for _, d := range r.Declarations {
		out.Declarations = append(out.Declarations, declarationJSON{
			Source: d.Source.String(),
			File:   d.File,
			Dir:    d.Dir,
			Node:   d.Node.Raw,
			Pnpm:   d.PackageManager.Raw,
		})
	}
	for _, m := range r.Messages {
		if m.Level == hook.LevelWarn {
			out.Warnings = append(out.Warnings, m.Text)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("cli.status: %w", err)
	}
	return nil
}
