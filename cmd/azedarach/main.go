// Command azedarach is a terminal kanban coordinator for issue-driven
// software work, built on bd, tmux, and git.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/azedarach/azedarach/internal/app"
	"github.com/azedarach/azedarach/internal/beadstore"
	"github.com/azedarach/azedarach/internal/config"
	"github.com/azedarach/azedarach/internal/coordinator"
	"github.com/azedarach/azedarach/internal/devserver"
	"github.com/azedarach/azedarach/internal/logx"
	"github.com/azedarach/azedarach/internal/multiplexer"
	"github.com/azedarach/azedarach/internal/planning"
	"github.com/azedarach/azedarach/internal/projectregistry"
	"github.com/azedarach/azedarach/internal/ui/styles"
	"github.com/azedarach/azedarach/internal/worktree"
)

var (
	jsonOutput  bool
	projectFlag string
)

func main() {
	root := &cobra.Command{
		Use:   "azedarach",
		Short: "Terminal kanban coordinator for issue-driven software work",
		RunE:  runTUI,
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of interactive output")
	root.PersistentFlags().StringVar(&projectFlag, "project", "", "project name or path to operate on")
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	if err := config.Initialize(cwd); err != nil {
		return err
	}
	if _, err := logx.Init(logx.Options{Dir: config.GetString("session.logDir")}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	registry, err := projectregistry.New()
	if err != nil {
		return fmt.Errorf("opening project registry: %w", err)
	}

	projectName, projectPath, err := resolveProject(registry, cwd)
	if err != nil {
		return err
	}

	planner, err := planning.New("")
	if err != nil {
		planner = nil // planning disabled without ANTHROPIC_API_KEY; RunPlanning reports this
	}

	basePort := config.GetInt("devServer.basePort")
	maxPort := config.GetInt("devServer.maxPort")
	coord := coordinator.New(projectName, projectPath, registry, planner, config.BlockingStatusLabel(), basePort, maxPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	sidecarDefs, err := config.LoadDevServerSidecar(filepath.Join(projectPath, ".azedarach", "devservers.yaml"))
	if err != nil {
		return fmt.Errorf("loading dev-server sidecar: %w", err)
	}
	devServerDefs := toDevServerDefs(config.MergeDevServerDefs(config.DevServerDefs(), sidecarDefs))

	theme := styles.Resolve(config.GetString("theme"))
	a := app.New(coord, theme, config.BlockingStatusLabel(), devServerDefs)

	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// toDevServerDefs converts the config package's DevServerDef (which also
// carries Cwd/ReadyRegex, fields devserver.Def has no place for) into the plain
// devserver.Def the coordinator's ToggleDevServer/RestartDevServer Msgs
// expect.
func toDevServerDefs(defs []config.DevServerDef) []devserver.Def {
	out := make([]devserver.Def, 0, len(defs))
	for _, d := range defs {
		out = append(out, devserver.Def{Name: d.Name, Command: d.Command, Environment: d.Environment})
	}
	return out
}

func resolveProject(registry *projectregistry.Registry, cwd string) (name, path string, err error) {
	if projectFlag != "" {
		entries, err := registry.List()
		if err != nil {
			return "", "", err
		}
		for _, e := range entries {
			if e.Name == projectFlag {
				return e.Name, e.Path, nil
			}
		}
		abs, _ := filepath.Abs(projectFlag)
		return filepath.Base(abs), abs, nil
	}

	entries, err := registry.List()
	if err != nil {
		return "", "", err
	}
	if entry, ok := projectregistry.ResolveByCWD(entries, cwd); ok {
		return entry.Name, entry.Path, nil
	}

	if projectregistry.IsGitWorkingDirectory(cwd) {
		name := filepath.Base(cwd)
		_ = registry.Register(projectregistry.Entry{Name: name, Path: cwd})
		return name, cwd, nil
	}

	if entry, ok, err := registry.Default(); err == nil && ok {
		return entry.Name, entry.Path, nil
	}

	return filepath.Base(cwd), cwd, nil
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run non-interactive environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := config.Initialize(cwd); err != nil {
		fmt.Printf("[FAIL] config: %v\n", err)
	} else {
		fmt.Println("[ OK ] config loaded")
	}

	mux := multiplexer.New()
	if _, err := mux.HasSession(ctx, "azedarach-doctor-probe"); err != nil {
		fmt.Printf("[FAIL] tmux: %v\n", err)
	} else {
		fmt.Println("[ OK ] tmux reachable")
	}

	store := beadstore.New(cwd)
	if _, err := store.List(ctx); err != nil {
		fmt.Printf("[FAIL] bd: %v\n", err)
	} else {
		fmt.Println("[ OK ] bd reachable")
	}

	wt := worktree.New(cwd, "", "", "")
	if _, _, err := wt.BehindCount(ctx, cwd, "main"); err != nil {
		fmt.Printf("[WARN] git: %v\n", err)
	} else {
		fmt.Println("[ OK ] git reachable")
	}

	return nil
}
