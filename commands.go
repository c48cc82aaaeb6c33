package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"nestcanvas/internal/canvas"
	"nestcanvas/internal/config"
	"nestcanvas/internal/content"
	"nestcanvas/internal/export"
	"nestcanvas/internal/model"
	"nestcanvas/internal/rectcache"
	"nestcanvas/internal/tui"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the canvas editor",
		Args:  cobra.NoArgs,
		RunE:  runEditor,
	}
}

func runEditor(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	reducer := canvas.NewReducer(a.store, rectcache.New(), a.cfg.Canvas.EngineOptions(), a.logger)

	var watcher *config.Watcher
	if a.cfg.Path != "" {
		watcher, err = config.NewWatcher(a.cfg, config.DefaultDebounce, a.logger)
		if err != nil {
			// Editing still works without live reload.
			a.logger.Warn("config watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	m, err := tui.New(tui.Options{
		Store:    a.store,
		Reducer:  reducer,
		Registry: content.NewRegistry(),
		Config:   a.cfg,
		Watcher:  watcher,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	}
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

func exportCmd() *cobra.Command {
	var conceptID string
	cmd := &cobra.Command{
		Use:   "export <out.png>",
		Short: "Render a canvas to a PNG file",
		Long: `Renders the blocks, relations and drawing of a canvas to a PNG image.
Without --concept the last viewed canvas is exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			id := model.ConceptID(conceptID)
			if id == "" {
				id = a.store.GetSettings().ViewingConceptID
			}
			c, ok := a.store.GetConcept(id)
			if !ok {
				return fmt.Errorf("concept %s not found", id)
			}

			path := args[0]
			err = export.SavePNG(path, c, a.store.GetConcept, content.NewRegistry(), a.cfg.Canvas.ExportOptions())
			if errors.Is(err, export.ErrEmpty) {
				return fmt.Errorf("concept %s has no blocks to export", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", id, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&conceptID, "concept", "", "concept id to export")
	return cmd
}

func conceptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "concepts",
		Short: "List stored concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			return listConcepts(cmd, a)
		},
	}
}

func listConcepts(cmd *cobra.Command, a *app) error {
	reg := content.NewRegistry()
	settings := a.store.GetSettings()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tBLOCKS\tEDITED\tTITLE")
	for _, c := range a.store.GetAllConcepts() {
		title := strings.SplitN(reg.Text(c), "\n", 2)[0]
		if c.ID == settings.HomeConceptID {
			title += " (home)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Summary.Type, len(c.References), c.LastEditedTime.Local().Format(time.DateTime), title)
	}
	return w.Flush()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create the home canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if path == "" {
				return errors.New("no home directory; pass --config")
			}
			written, err := writeDefaultConfig(path)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(out, "Wrote %s\n", path)
			} else {
				fmt.Fprintf(out, "Keeping existing %s\n", path)
			}
			configPath = path

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			settings := a.store.GetSettings()
			fmt.Fprintf(out, "Data directory: %s\n", a.cfg.DataDir)
			fmt.Fprintf(out, "Home canvas: %s\n", settings.HomeConceptID)
			return nil
		},
	}
}

// writeDefaultConfig creates path with the default configuration unless it
// already exists.
func writeDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	raw, err := yaml.Marshal(config.Default())
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
