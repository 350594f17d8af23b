package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"tender-crew/agent"
	"tender-crew/client"
	"tender-crew/config"
	"tender-crew/document"
	"tender-crew/knowledge"
	"tender-crew/pipeline"
	"tender-crew/repl"
	"tender-crew/router"
	"tender-crew/search"
)

// app holds what every subcommand shares. Only the crew commands need an
// API key, so the crew is wired per command.
type app struct {
	settings config.Settings
	logger   *log.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// crewSetup is the wired crew with the resources that must be released.
type crewSetup struct {
	pipeline *pipeline.Pipeline
	kb       *knowledge.Store
	usage    *client.UsageTracker
	clients  []*client.APIClient
}

func (c *crewSetup) Close() {
	for _, cl := range c.clients {
		cl.Close()
	}
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		printUsage(stdout)
		return nil
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}
	a := &app{
		settings: settings,
		logger:   newLogger(stderr, settings.LogLevel),
		stdout:   stdout,
		stderr:   stderr,
	}

	if len(args) > 0 {
		switch args[0] {
		case "run":
			return a.runOnce(ctx, args[1:])
		case "kb":
			return a.knowledgeCommand(ctx, args[1:])
		case "config":
			return a.configCommand(args[1:])
		}
	}
	return a.interactive(ctx, args)
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "tender-crew",
	})
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "📑 Tender Crew")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A team of AI agents that analyses public procurement tasks: a manager")
	fmt.Fprintln(w, "delegates to a researcher, a writer, an analyst and a financial expert,")
	fmt.Fprintln(w, "then synthesizes their answers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SETUP:")
	fmt.Fprintln(w, "  Set OPENAI_API_KEY environment variable or create a .env file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  tender-crew [--plain] [--file PATH] [--roster crew.yaml]")
	fmt.Fprintln(w, "  tender-crew run [--file PATH] [--roster crew.yaml] [--usage usage.json] TASK...")
	fmt.Fprintln(w, "  tender-crew kb list | add PATH... | rm NAME | feed URL...")
	fmt.Fprintln(w, "  tender-crew config show | set ROLE [--instructions TEXT] [--backstory TEXT] | schema")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "ENVIRONMENT:")
	fmt.Fprintf(w, "  %-22s OpenAI API key\n", config.EnvOpenAIAPIKey)
	fmt.Fprintf(w, "  %-22s comma separated keys, requests are spread round-robin\n", config.EnvOpenAIAPIKeys)
	fmt.Fprintf(w, "  %-22s OpenAI compatible endpoint\n", config.EnvOpenAIBaseURL)
	fmt.Fprintf(w, "  %-22s chat model (default %s)\n", config.EnvModel, client.DefaultModel)
	fmt.Fprintf(w, "  %-22s serper | duckduckgo | off\n", config.EnvSearch)
	fmt.Fprintf(w, "  %-22s Serper.dev API key\n", config.EnvSerperAPIKey)
	fmt.Fprintf(w, "  %-22s knowledge base directory (default %s)\n", config.EnvKnowledgeDir, config.DefaultKnowledgeDir)
	fmt.Fprintf(w, "  %-22s agent configs file (default %s)\n", config.EnvAgentConfigs, config.DefaultAgentConfigsPath)
	fmt.Fprintf(w, "  %-22s ro | en\n", config.EnvLocale)
	fmt.Fprintf(w, "  %-22s debug | info | warn | error\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %-22s requests and tokens per minute\n", config.EnvRPM+", "+config.EnvTPM)
}

// roster merges the locale's default roles with the saved agent configs and
// an optional YAML crew file, in that order.
func (a *app) roster(rosterPath string) ([]agent.Spec, error) {
	defaults := agent.DefaultRoster(a.settings.Locale)

	saved, err := a.configStore().Load()
	if err != nil {
		return nil, err
	}
	roster, err := agent.MergeRoster(defaults, agent.LocalizeOverrides(saved.Overrides(), a.settings.Locale))
	if err != nil {
		return nil, fmt.Errorf("agent configs %s: %w", a.settings.AgentConfigsPath, err)
	}

	if rosterPath != "" {
		file, err := config.LoadRoster(rosterPath)
		if err != nil {
			return nil, err
		}
		if roster, err = agent.MergeRoster(roster, agent.LocalizeOverrides(file.Overrides(), a.settings.Locale)); err != nil {
			return nil, fmt.Errorf("roster %s: %w", rosterPath, err)
		}
	}
	return roster, nil
}

func (a *app) configStore() *config.Store {
	defaults := agent.DefaultRoster(a.settings.Locale)
	roles := make([]string, len(defaults))
	for i, spec := range defaults {
		roles[i] = spec.Name
	}
	return config.NewStore(a.settings.AgentConfigsPath, roles)
}

func (a *app) knowledgeStore() (*knowledge.Store, error) {
	return knowledge.NewStore(a.settings.KnowledgeDir, a.logger)
}

// setupCrew wires the generation backends, the search backend and the
// knowledge base into a submission pipeline.
func (a *app) setupCrew(rosterPath string) (*crewSetup, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}

	setup := &crewSetup{usage: client.NewUsageTracker()}
	gen := a.generator(setup, nil)
	// File summaries are generated at temperature 0.
	summaryGen := a.generator(setup, client.Temperature(0))

	searcher, err := search.New(search.Config{
		Provider:     a.settings.SearchProvider,
		SerperAPIKey: a.settings.SerperAPIKey,
		Logger:       a.logger,
	})
	if err != nil {
		setup.Close()
		return nil, err
	}

	roster, err := a.roster(rosterPath)
	if err != nil {
		setup.Close()
		return nil, err
	}
	crew, err := agent.NewCrew(roster, gen, searcher, a.settings.Locale)
	if err != nil {
		setup.Close()
		return nil, err
	}

	kb, err := a.knowledgeStore()
	if err != nil {
		setup.Close()
		return nil, err
	}
	setup.kb = kb

	summarizer := document.NewSummarizer(summaryGen, a.settings.Locale)
	setup.pipeline = pipeline.NewPipeline(crew, summarizer, kb, a.settings.Locale, a.logger)

	a.logger.Debug("Crew ready",
		"workers", strings.Join(crew.Names(), ", "),
		"model", setup.clients[0].Model(),
		"backends", len(a.settings.APIKeys),
		"search", searcher != nil,
		"locale", a.settings.Locale.Code,
	)
	return setup, nil
}

// generator returns one client per API key, spread round-robin when there
// are several. The clients are released with setup.
func (a *app) generator(setup *crewSetup, temperature *float64) agent.Generator {
	backends := make([]agent.Generator, 0, len(a.settings.APIKeys))
	for _, key := range a.settings.APIKeys {
		c := client.NewAPIClient(client.APIClientConfig{
			APIKey:            key,
			BaseURL:           a.settings.BaseURL,
			Model:             a.settings.Model,
			RequestsPerMinute: a.settings.RequestsPerMinute,
			TokensPerMinute:   a.settings.TokensPerMinute,
			Logger:            a.logger,
			Temperature:       temperature,
			Usage:             setup.usage,
		})
		setup.clients = append(setup.clients, c)
		backends = append(backends, c)
	}

	if len(backends) == 1 {
		return backends[0]
	}
	return router.NewRouter(backends, a.logger)
}

func readAttachment(path string) (string, []byte, error) {
	if path == "" {
		return "", nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

// interactive starts the TUI, or the line-mode REPL with --plain.
func (a *app) interactive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tender-crew", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	plain := fs.Bool("plain", false, "line mode instead of the full screen interface")
	filePath := fs.String("file", "", "file to attach to the first task")
	rosterPath := fs.String("roster", "", "YAML crew file overriding agent configs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fileName, fileData, err := readAttachment(*filePath)
	if err != nil {
		return err
	}

	if !*plain {
		// Logs would draw over the full screen interface.
		logFile, err := os.OpenFile(filepath.Join(os.TempDir(), "tender-crew.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()
		a.logger = newLogger(logFile, a.settings.LogLevel)
	}

	setup, err := a.setupCrew(*rosterPath)
	if err != nil {
		return err
	}
	defer setup.Close()

	if *plain {
		r := repl.NewREPL(setup.pipeline, setup.kb, a.settings.Locale)
		r.Start(ctx)
		fmt.Fprint(a.stdout, formatUsage(setup.usage))
		return nil
	}

	program := tea.NewProgram(
		initialModel(ctx, setup.pipeline, setup.usage, a.settings.Locale, fileName, fileData),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	fmt.Fprint(a.stdout, formatUsage(setup.usage))
	return nil
}

// runOnce submits a single task and prints the answer.
func (a *app) runOnce(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	filePath := fs.String("file", "", "file to attach to the task")
	rosterPath := fs.String("roster", "", "YAML crew file overriding agent configs")
	usagePath := fs.String("usage", "", "write token usage as JSON to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fileName, fileData, err := readAttachment(*filePath)
	if err != nil {
		return err
	}

	setup, err := a.setupCrew(*rosterPath)
	if err != nil {
		return err
	}
	defer setup.Close()

	setup.pipeline.Crew().Manager.Progress = func(u agent.ProgressUpdate) {
		a.logger.Info("Progress", "worker", u.Worker, "status", u.Status)
	}

	outcome, err := setup.pipeline.Submit(ctx, pipeline.Submission{
		Prompt:   strings.Join(fs.Args(), " "),
		FileName: fileName,
		FileData: fileData,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, outcome.Result.Text)

	if *usagePath != "" {
		if err := setup.usage.SaveFile(*usagePath); err != nil {
			return err
		}
	}
	fmt.Fprint(a.stderr, formatUsage(setup.usage))
	return nil
}

// formatNumber formats a number with commas for better readability
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := strconv.Itoa(n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	return result.String()
}
