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
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"termagent/internal/agent"
	"termagent/internal/config"
	"termagent/internal/demux"
	"termagent/internal/llm"
	"termagent/internal/logger"
	"termagent/internal/profile"
	"termagent/internal/session"
	"termagent/internal/terminal"
	"termagent/internal/tools"
	"termagent/internal/transcript"
	"termagent/internal/tui"
)

const apiKeyEnv = "ANTHROPIC_API_KEY"

var errTranscriptDirRequired = errors.New("no transcript directory configured (set session.transcript_dir or --transcript)")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newStdApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		// The session already reported a failed turn to the user.
		if !errors.Is(err, session.ErrTurnFailed) {
			_, _ = fmt.Fprintf(os.Stderr, "termagent: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries the process streams and the seams tests replace.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	stdinTTY bool
	// keys is the live toggle source; nil disables it.
	keys terminal.KeySource

	newProvider func(settings config.AnthropicSettings) llm.Provider
	httpClient  *http.Client
}

func newStdApp() *app {
	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stdinTTY:    terminal.IsTerminal(os.Stdin),
		newProvider: newAnthropicProvider,
	}
	if a.stdinTTY && terminal.IsTerminal(os.Stdout) {
		if tty, err := terminal.NewTTY(os.Stdin); err == nil {
			a.keys = tty
		}
	}
	return a
}

type rootOptions struct {
	configPath    string
	profilePath   string
	task          string
	transcriptDir string
	showInternal  bool
}

func newRootCmd(a *app) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "termagent [task...]",
		Short: "termagent is a terminal research agent with web and workspace tools",
		Long: "termagent answers a task and exits when one is given by --task, by arguments\n" +
			"or on standard input; otherwise it starts an interactive session.\n\n" +
			"A task whose first word is \"transcripts\" must be passed with --task.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts, args, cmd.Flags().Changed("show-internal"))
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "Task to answer in one-shot mode")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&opts.profilePath, "profile", "", "Path to agent profile (default ./agent.yaml)")
	cmd.PersistentFlags().StringVar(&opts.transcriptDir, "transcript", "", "Directory to record session transcripts in")
	cmd.Flags().BoolVar(&opts.showInternal, "show-internal", false, "Start with the internal channel visible")

	cmd.AddCommand(newTranscriptsCmd(a, &opts))
	return cmd
}

func newTranscriptsCmd(a *app, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transcripts",
		Short: "List recorded session transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{Path: opts.configPath})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := openTranscripts(cfg, opts.transcriptDir)
			if err != nil {
				return err
			}
			if store == nil {
				return errTranscriptDirRequired
			}
			infos, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list transcripts: %w", err)
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintf(a.stdout, "no transcripts in %s\n", store.Dir())
				return nil
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SESSION\tUPDATED\tSIZE")
			for _, info := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", info.ID, info.UpdatedAt.Local().Format("2006-01-02 15:04:05"), info.SizeBytes)
			}
			return tw.Flush()
		},
	}
}

func (a *app) run(ctx context.Context, opts rootOptions, args []string, showInternalSet bool) error {
	cfg, err := config.Load(config.LoadOptions{Path: opts.configPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer := logger.Init(logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		File:     cfg.Log.File,
		Fallback: a.stderr,
	})
	defer closer.Close()

	settings, err := cfg.AnthropicSettings()
	if err != nil {
		return fmt.Errorf("resolve anthropic settings: %w", err)
	}
	if settings.APIKey == "" {
		return fmt.Errorf("%w: set %s", llm.ErrMissingAPIKey, apiKeyEnv)
	}

	prof, err := profile.Load(firstNonEmpty(opts.profilePath, cfg.Agent.Profile))
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if prof.Model != "" {
		settings.Model = prof.Model
	}

	task, oneShot, err := a.resolveTask(opts.task, args)
	if err != nil {
		return err
	}

	registry, err := a.buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	ag, err := agent.New(agent.Config{
		Provider:  a.newProvider(settings),
		Registry:  registry,
		Model:     settings.Model,
		MaxTokens: settings.MaxTokens,
		MaxRounds: cfg.Rounds(),
		Logger:    slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	store, err := openTranscripts(cfg, opts.transcriptDir)
	if err != nil {
		return err
	}

	toggleKey, err := terminal.ParseKey(cfg.UI.ToggleKey)
	if err != nil {
		return fmt.Errorf("%w: ui.toggle_key: %w", config.ErrInvalidConfig, err)
	}
	showInternal := cfg.UI.ShowInternal
	if showInternalSet {
		showInternal = opts.showInternal
	}

	sessCfg := session.Config{
		Runner:       ag,
		Tools:        registry,
		SystemPrompt: profile.SystemPrompt(prof, registry.Tools()),
		Toggle:       demux.NewToggle(showInternal),
		ToggleKey:    toggleKey,
		In:           a.stdin,
		Out:          a.stdout,
		Renderer:     tui.NewRenderer(a.stdout, cfg.UI.Theme),
		Transcript:   store,
		Logger:       slog.Default(),
		AgentName:    prof.Name,
		Description:  prof.Description,
		Greeting:     prof.Greeting,
	}
	if !oneShot {
		sessCfg.Keys = a.keys
	}

	sess, err := session.New(sessCfg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	slog.Debug("session started", "session", sess.ID(), "one_shot", oneShot, "model", settings.Model)

	if oneShot {
		return sess.RunOnce(ctx, task)
	}
	return sess.RunInteractive(ctx)
}

// resolveTask picks the one-shot task from the flag, then the positional
// arguments, then piped standard input. oneShot is false only when none of
// them applies and a terminal is attached.
func (a *app) resolveTask(flagTask string, args []string) (task string, oneShot bool, err error) {
	if task := strings.TrimSpace(flagTask); task != "" {
		return task, true, nil
	}
	if task := strings.TrimSpace(strings.Join(args, " ")); task != "" {
		return task, true, nil
	}
	if a.stdinTTY || a.stdin == nil {
		return "", false, nil
	}

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", false, fmt.Errorf("read task from stdin: %w", err)
	}
	task = strings.TrimSpace(string(data))
	if task == "" {
		return "", false, session.ErrEmptyTask
	}
	return task, true, nil
}

func (a *app) buildRegistry(cfg config.Config) (*tools.Registry, error) {
	settings, err := cfg.ToolSettings()
	if err != nil {
		return nil, err
	}
	workspace := settings.Workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve cwd: %w", err)
		}
	}
	return tools.NewBuiltinRegistry(tools.Options{
		Workspace:  workspace,
		HTTPClient: a.httpClient,
		Timeout:    settings.Timeout,
		Search: tools.SearchConfig{
			Endpoint: settings.SearchEndpoint,
			APIKey:   settings.SearchAPIKey,
			KeyFile:  settings.SearchKeyFile,
		},
	})
}

func newAnthropicProvider(settings config.AnthropicSettings) llm.Provider {
	return llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Version:        settings.Version,
		RequestTimeout: settings.RequestTimeout,
		Retry: llm.RetryPolicy{
			MaxRetries: settings.Retry.MaxRetries,
			BaseDelay:  settings.Retry.BaseDelay,
			MaxDelay:   settings.Retry.MaxDelay,
		},
	})
}

func openTranscripts(cfg config.Config, override string) (*transcript.Store, error) {
	dir := firstNonEmpty(override, cfg.Session.TranscriptDir)
	if dir == "" {
		return nil, nil
	}
	store, err := transcript.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open transcripts: %w", err)
	}
	return store, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
