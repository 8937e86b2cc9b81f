package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ForgottenHistory/Debate-Corner/internal/config"
	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/debate"
	"github.com/ForgottenHistory/Debate-Corner/internal/export"
	"github.com/ForgottenHistory/Debate-Corner/internal/verdict"
	"github.com/ForgottenHistory/Debate-Corner/web/handlers"
)

var (
	cfgPath   string
	debugFlag bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "debatecorner",
	Short: "AI debate arena",
	Long: `debatecorner runs formal debates between language models.

Two models argue FOR and AGAINST a proposition over an opening and two
rebuttal rounds, then a panel of three judge models decides the winner.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		slog.SetDefault(newLogger(os.Stderr, appConfig.Logging, debugFlag))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.debate-corner/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(personalitiesCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(configCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") {
			servePort = appConfig.Server.Port
		}

		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		var opts []handlers.Option
		if a.ledger != nil {
			opts = append(opts, handlers.WithLedger(a.ledger))
		}
		h := handlers.New(a.service, opts...)

		return startWebServer(cmd.Context(), h.Routes(), servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8182, "Server port")
}

func startWebServer(ctx context.Context, handler http.Handler, port int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting debate corner server", "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run a full debate in the terminal",
	Long: `Run a complete debate and print it as it is generated.

Debaters and judges are given as provider/model[@personality].

Examples:
  debatecorner run "Remote work beats the office" \
    --for featherless/meta-llama/Meta-Llama-3.1-8B-Instruct@academic \
    --against featherless/mistralai/Mistral-Nemo-Instruct-2407@zealot \
    --judges featherless/Qwen/Qwen2.5-7B-Instruct
  debatecorner run "Cats beat dogs" --for openrouter/x/y:free --against openrouter/x/z:free \
    --judges openrouter/a:free,openrouter/b:free,openrouter/c:free --export markdown`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebate,
}

var (
	forFlag     string
	againstFlag string
	judgesFlag  string
	lengthFlag  string
	exportFlag  string
	outputFlag  string
	noStream    bool
)

func init() {
	runCmd.Flags().StringVar(&forFlag, "for", "", "Debater arguing FOR (provider/model[@personality])")
	runCmd.Flags().StringVar(&againstFlag, "against", "", "Debater arguing AGAINST (provider/model[@personality])")
	runCmd.Flags().StringVar(&judgesFlag, "judges", "", "Judge models, one or three (provider/model,...)")
	runCmd.Flags().StringVarP(&lengthFlag, "length", "l", "", "Response length: short, medium, long")
	runCmd.Flags().StringVarP(&exportFlag, "export", "e", "", "Export format after the debate: markdown, pdf, json")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Export file path")
	runCmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for each full turn instead of streaming")
	runCmd.MarkFlagRequired("for")
	runCmd.MarkFlagRequired("against")
	runCmd.MarkFlagRequired("judges")
}

func runDebate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	forSpec, err := core.ParseDebaterSpec(forFlag)
	if err != nil {
		return fmt.Errorf("invalid --for: %w", err)
	}
	againstSpec, err := core.ParseDebaterSpec(againstFlag)
	if err != nil {
		return fmt.Errorf("invalid --against: %w", err)
	}
	judgeSpecs, err := core.ParseJudgeSpecs(judgesFlag, core.PanelSize)
	if err != nil {
		return fmt.Errorf("invalid --judges: %w", err)
	}

	length := core.LengthTier(lengthFlag)
	if length != "" && !length.Valid() {
		return fmt.Errorf("invalid --length: %s", lengthFlag)
	}

	var exporter export.Exporter
	if exportFlag != "" {
		if exporter, err = export.GetExporter(export.Format(strings.ToLower(exportFlag))); err != nil {
			return err
		}
	}

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, spec := range []core.DebaterSpec{forSpec, againstSpec} {
		if spec.Personality != "" && !a.service.Debaters().Valid(spec.Personality) {
			return fmt.Errorf("unknown personality: %s", spec.Personality)
		}
	}

	seats := make([]debate.JudgeSeat, len(judgeSpecs))
	for i, j := range judgeSpecs {
		seats[i] = debate.JudgeSeat{Provider: j.Provider, Model: j.Model}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nTopic: %s\n", topic)
	progress := &turnPrinter{w: out, schedule: core.Schedule()}

	d, err := a.service.Run(ctx, debate.RunConfig{
		Topic:   topic,
		For:     core.Participant{Provider: forSpec.Provider, Model: forSpec.Model, Personality: forSpec.Personality},
		Against: core.Participant{Provider: againstSpec.Provider, Model: againstSpec.Model, Personality: againstSpec.Personality},
		Judges:  seats,
		Length:  length,
		Stream:  !noStream,
	}, progress.observer())
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\n\nInterrupted.")
			return nil
		}
		return fmt.Errorf("debate failed: %w", err)
	}

	votes := verdict.Tally(judgeWinners(d.Judges))
	fmt.Fprintf(out, "\n%s\nResult: %s (FOR %d, AGAINST %d, TIE %d)\n",
		strings.Repeat("=", 60), d.Winner, votes.For, votes.Against, votes.Tie)

	if exporter != nil {
		path := outputFlag
		if path == "" {
			path = export.GenerateFilename(d, exporter.FileExtension())
		}
		if err := exportToFile(exporter, d, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to: %s\n", path)
	}
	return nil
}

// turnPrinter writes each turn under a heading as its fragments arrive.
type turnPrinter struct {
	w        io.Writer
	schedule []core.DebateTurn
	next     int
	started  bool
}

func (p *turnPrinter) heading() {
	if p.started || p.next >= len(p.schedule) {
		return
	}
	p.started = true
	t := p.schedule[p.next]
	fmt.Fprintf(p.w, "\n%s - %s\n%s\n", t.Side, t.Label(), strings.Repeat("-", 40))
}

func (p *turnPrinter) observer() debate.Observer {
	return debate.Observer{
		OnFragment: func(side core.Side, fragment string) {
			p.heading()
			fmt.Fprint(p.w, fragment)
		},
		OnTurn: func(turn core.DebateTurn) {
			p.heading()
			fmt.Fprintln(p.w)
			p.started = false
			p.next++
		},
		OnVerdict: func(v core.JudgeVerdict) {
			fmt.Fprintf(p.w, "\nJudge %d (%s): %s\n%s\n", v.JudgeIndex, v.Personality, v.Winner, v.Reasoning)
		},
	}
}

func judgeWinners(verdicts []core.JudgeVerdict) []core.Winner {
	out := make([]core.Winner, len(verdicts))
	for i, v := range verdicts {
		out[i] = v.Winner
	}
	return out
}

func exportToFile(exporter export.Exporter, d *core.Debate, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := exporter.Export(d, file); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	return nil
}

// ============================================================================
// MODELS COMMAND
// ============================================================================

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List models offered by a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		models, err := a.service.ListModels(cmd.Context(), name)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No models found. Check the API key and run with --debug for details.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tOWNED BY")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\n", m.ID, m.OwnedBy)
		}
		return w.Flush()
	},
}

// ============================================================================
// PERSONALITIES COMMAND
// ============================================================================

var personalitiesCmd = &cobra.Command{
	Use:     "personalities",
	Short:   "List debater and judge personalities",
	Aliases: []string{"personality"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

		fmt.Fprintln(out, "\nDebaters:")
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, p := range a.service.Debaters().List() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
		}
		w.Flush()

		fmt.Fprintln(out, "\nJudges:")
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, p := range a.service.Judges().List() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
		}
		return w.Flush()
	},
}

// ============================================================================
// USAGE COMMAND
// ============================================================================

var usageLimit int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show recorded upstream calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger(appConfig)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		if store == nil {
			return fmt.Errorf("ledger is disabled (ledger.enabled: false)")
		}
		defer store.Close()

		summary, err := store.Summary()
		if err != nil {
			return err
		}
		entries, err := store.Recent(usageLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tCALLS\tFAILURES\tAVG MS")
		for _, s := range summary {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.0f\n", s.Provider, s.Calls, s.Failures, s.AvgDurationMs)
		}
		w.Flush()

		fmt.Fprintln(out)
		fmt.Fprintln(w, "TIME\tOPERATION\tPROVIDER\tMODEL\tSTATUS\tMS")
		for _, e := range entries {
			status := fmt.Sprintf("%d", e.StatusCode)
			if e.Error != "" {
				status += " " + truncate(e.Error, 40)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				e.CreatedAt.Local().Format("Jan 2 15:04:05"), e.Operation, e.Provider, e.Model, status, e.DurationMs)
		}
		return w.Flush()
	},
}

func init() {
	usageCmd.Flags().IntVarP(&usageLimit, "limit", "n", 20, "Number of recent calls to show")
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config file: %s\n\n", configFile())

		fmt.Fprintln(out, "Current settings:")
		fmt.Fprintf(out, "  Default provider: %s\n", appConfig.Defaults.Provider)
		fmt.Fprintf(out, "  Response length: %s\n", appConfig.Defaults.ResponseLength)
		fmt.Fprintf(out, "  Judging: temperature %.2f, max tokens %d\n", appConfig.Judging.Temperature, appConfig.Judging.MaxTokens)
		fmt.Fprintf(out, "  Server port: %d\n", appConfig.Server.Port)
		if appConfig.Ledger.Enabled {
			fmt.Fprintf(out, "  Ledger: %s\n", appConfig.Ledger.Path)
		} else {
			fmt.Fprintln(out, "  Ledger: disabled")
		}

		fmt.Fprintln(out, "\nProviders:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, name := range sortedProviderNames(appConfig) {
			p := appConfig.Providers[name]
			status := "disabled"
			if p.Enabled {
				status = "enabled"
			}
			key := "no api key"
			if p.APIKey != "" {
				key = "api key set"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\ttimeout %s\t%s\n", name, status, p.BaseURL, p.Timeout, key)
		}
		return w.Flush()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := writeExample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created config at: %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configFile())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// ============================================================================
// HELPERS
// ============================================================================

func configFile() string {
	if cfgPath != "" {
		return cfgPath
	}
	return config.DefaultConfigPath()
}

func sortedProviderNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func writeExample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(config.GenerateExample()), 0644)
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
