package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"mindmaster/internal/app"
	"mindmaster/internal/hint"
	"mindmaster/internal/levels"
)

type rootFlags struct {
	dataDir   string
	logPath   string
	catalog   string
	dev       bool
	devHTTP   string
	demo      string
	debug     bool
	ascii     bool
	muted     bool
	bell      bool
	style     string
	motion    string
	hintMode  string
	hintModel string
	noStats   bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:           "mindmaster",
		Short:         "Twenty trick riddles, solved by mouse in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, &f)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.dataDir, "data-dir", "", "directory for stats.db (default ~/.local/share/mindmaster)")
	pf.StringVar(&f.logPath, "log", "", "write JSON logs to this file")
	pf.StringVar(&f.catalog, "catalog", "", "load levels from this YAML file instead of the builtin catalog")
	pf.BoolVar(&f.debug, "debug", false, "verbose logging")

	fl := root.Flags()
	fl.BoolVar(&f.dev, "dev", false, "start the dev HTTP control server")
	fl.StringVar(&f.devHTTP, "dev-http", "", "dev HTTP listen address")
	fl.StringVar(&f.demo, "demo", "", "dev scenario to apply on start")
	fl.BoolVar(&f.ascii, "ascii", false, "ASCII-only glyphs")
	fl.BoolVar(&f.muted, "muted", false, "start with sound off")
	fl.BoolVar(&f.bell, "bell", false, "ring the terminal bell on win and wrong cues")
	fl.StringVar(&f.style, "style", "", "ui style: modern_arcade, cozy_clean or retro_terminal")
	fl.StringVar(&f.motion, "motion", "", "motion level: full, reduced or off")
	fl.StringVar(&f.hintMode, "hint-mode", "", "oracle backend: auto, gemini, offline or mock")
	fl.StringVar(&f.hintModel, "hint-model", "", "Gemini model for the oracle")
	fl.BoolVar(&f.noStats, "no-stats", false, "do not record lifetime stats")

	play := &cobra.Command{
		Use:   "play",
		Short: "Start the game (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, &f)
		},
	}
	play.Flags().AddFlagSet(fl)

	root.AddCommand(play, newLevelsCmd(&f), newStatsCmd(&f), newAuthCmd(&f), newVersionCmd())
	return root
}

// loadConfig layers defaults, then .env and MINDMASTER_* variables, then flags.
func loadConfig(cmd *cobra.Command, f *rootFlags) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadEnv(&cfg); err != nil {
		return cfg, err
	}
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("log") {
		cfg.LogPath = f.logPath
	}
	if changed("catalog") {
		cfg.CatalogPath = f.catalog
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if changed("dev") {
		cfg.Dev = f.dev
	}
	if changed("dev-http") {
		cfg.DevHTTP = f.devHTTP
	}
	if changed("demo") {
		cfg.DemoScenario = f.demo
	}
	if changed("ascii") {
		cfg.ASCIIOnly = f.ascii
	}
	if changed("muted") {
		cfg.Audio.Muted = f.muted
	}
	if changed("bell") {
		cfg.Audio.Bell = f.bell
	}
	if changed("style") {
		cfg.UI.StyleVariant = f.style
	}
	if changed("motion") {
		cfg.UI.MotionLevel = f.motion
	}
	if changed("hint-mode") {
		cfg.Hint.Mode = f.hintMode
	}
	if changed("hint-model") {
		cfg.Hint.Model = f.hintModel
	}
	if changed("no-stats") {
		cfg.StatsEnabled = !f.noStats
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runPlay(cmd *cobra.Command, f *rootFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(cmd.Context())
}

func newLevelsCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Inspect the level catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every level with its interaction type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			cat, err := levels.NewLoader().Load(cmd.Context(), cfg.CatalogPath)
			if err != nil {
				return err
			}
			t := newTable("ID", "Type", "Assets", "Question")
			for _, lvl := range cat.Levels {
				t.Row(strconv.Itoa(lvl.ID), string(lvl.Type), strconv.Itoa(len(lvl.Assets)), lvl.Question)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [catalog.yaml]",
		Short: "Check a catalog file against the level schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.catalog
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := levels.NewLoader().Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d levels in %s\n", cat.Len(), cat.Path)
			return nil
		},
	})
	return cmd
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime play statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			report, err := app.ReadStats(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := report.Summary
			fmt.Fprintf(out, "sessions %d  attempts %d  solves %d  gestures %d\n", s.Sessions, s.Attempts, s.Solves, s.Gestures)
			fmt.Fprintf(out, "hints %d  oracle %d  restarts %d  skips %d\n", s.Hints, s.Oracles, s.Restarts, s.Skips)
			if len(report.Levels) == 0 {
				return nil
			}
			t := newTable("Level", "Attempts", "Solves", "Best")
			for _, lv := range report.Levels {
				t.Row(strconv.Itoa(lv.LevelID), strconv.Itoa(lv.Attempts), strconv.Itoa(lv.Solves), lv.Best)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}

func newAuthCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gemini API key used by the oracle",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key in the OS keyring (reads stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				key = line
			}
			if err := hint.NewKeyStore(hint.KeyringService).Set(strings.TrimSpace(key)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "api key stored in keyring")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := hint.NewKeyStore(hint.KeyringService).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "api key removed")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the API key would be read from",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, source, err := hint.NewKeyStore(hint.KeyringService).Resolve()
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no key: the oracle answers offline")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "key found via "+source)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check [level]",
		Short: "Ask the oracle about one level to check the configured backend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levelID := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("level %q: %w", args[0], err)
				}
				levelID = n
			}
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			ans, source, err := app.AskOracleOnce(cmd.Context(), cfg, levelID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "oracle via %s (%s)\n", source, ans.Elapsed.Round(time.Millisecond))
			fmt.Fprintln(out, ans.Text)
			if ans.Err != nil {
				return fmt.Errorf("oracle request: %w", ans.Err)
			}
			return nil
		},
	})
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindmaster %s\n", app.AppVersion)
		},
	}
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
