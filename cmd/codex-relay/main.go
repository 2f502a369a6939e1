package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattjoyce/codex-relay/internal/config"
	"github.com/mattjoyce/codex-relay/internal/generate"
	"github.com/mattjoyce/codex-relay/internal/github"
	"github.com/mattjoyce/codex-relay/internal/journal"
	"github.com/mattjoyce/codex-relay/internal/lock"
	"github.com/mattjoyce/codex-relay/internal/log"
	"github.com/mattjoyce/codex-relay/internal/pushover"
	"github.com/mattjoyce/codex-relay/internal/retry"
	"github.com/mattjoyce/codex-relay/internal/webhook"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "check":
		os.Exit(runCheck(args))
	case "deliveries":
		os.Exit(runDeliveries(args))
	case "version":
		fmt.Printf("codex-relay version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`codex-relay - GitHub webhook relay that turns issues into Codex-ready prompts

Usage:
  codex-relay <command> [flags]

Commands:
  start       Start the webhook service in foreground
  check       Validate configuration and exit
  deliveries  List recently handled webhook deliveries
  version     Show version information
  help        Show this help message

Use 'codex-relay <command> --help' for command-specific flags.
`)
}

// resolveConfigPath discovers the config file when --config was not given,
// and resolves directories to the config.yaml inside them.
func resolveConfigPath(configPath string) (string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return "", err
		}
		configPath = discovered
	}
	if stat, err := os.Stat(configPath); err == nil && stat.IsDir() {
		configPath = filepath.Join(configPath, "config.yaml")
	}
	return configPath, nil
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	configPath, err := resolveConfigPath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("codex-relay starting", "version", version, "config", configPath)

	if fingerprint, err := config.Fingerprint(configPath); err == nil {
		logger.Info("config fingerprint", "blake3", fingerprint)
	}

	lockPath := pidLockPath(cfg)
	instanceLock, err := lock.Acquire(lockPath)
	if err != nil {
		logger.Error("failed to acquire instance lock (another instance may be running)",
			"path", lockPath,
			"holder_pid", lock.HolderPID(lockPath),
			"error", err,
		)
		return 1
	}
	defer instanceLock.Release()

	sender := retry.NewSender(retry.Policy{
		MaxAttempts: cfg.HTTP.MaxRetries,
		BackoffBase: cfg.HTTP.BackoffBase,
	}, log.WithComponent("retry"))

	notifier := pushover.NewNotifier(
		cfg.Pushover.APIToken,
		cfg.Pushover.UserKey,
		cfg.GitHub.Repo,
		cfg.HTTP.Timeout,
		sender,
		log.WithComponent("pushover"),
	)
	if !notifier.Configured() {
		logger.Info("pushover not configured, notifications disabled")
	}

	publisher := github.NewPublisher(
		cfg.GitHub.Token,
		cfg.GitHub.Repo,
		cfg.HTTP.Timeout,
		sender,
		notifier,
		log.WithComponent("github"),
	)

	completer := generate.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.HTTP.Timeout)
	generator := generate.NewGenerator(completer, log.WithComponent("generate"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorder webhook.DeliveryRecorder
	if cfg.Journal.Path != "" {
		j, err := journal.Open(ctx, cfg.Journal.Path)
		if err != nil {
			logger.Error("failed to open delivery journal", "path", cfg.Journal.Path, "error", err)
			return 1
		}
		defer j.Close()
		logger.Info("delivery journal opened", "path", cfg.Journal.Path)
		recorder = j
	}

	server := webhook.New(webhook.Config{
		Listen:    cfg.Service.Listen,
		Secret:    cfg.GitHub.WebhookSecret,
		WatchUser: cfg.GitHub.WatchUser,
	}, generator, publisher, recorder, log.WithComponent("webhook"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	logger.Info("codex-relay running (press Ctrl+C to stop)",
		"listen", cfg.Service.Listen,
		"repo", cfg.GitHub.Repo,
		"watch_user", cfg.GitHub.WatchUser,
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("codex-relay stopped")
	return 0
}

// pidLockPath puts the instance lock next to the journal database, or
// under ./data when the journal is disabled.
func pidLockPath(cfg *config.Config) string {
	dir := "./data"
	if cfg.Journal.Path != "" {
		dir = filepath.Dir(cfg.Journal.Path)
	}
	return filepath.Join(dir, "codex-relay.pid")
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	configPath, err := resolveConfigPath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	fmt.Println("Config check PASSED.")
	fmt.Printf("  listen:     %s\n", cfg.Service.Listen)
	fmt.Printf("  repo:       %s\n", cfg.GitHub.Repo)
	fmt.Printf("  watch_user: %s\n", cfg.GitHub.WatchUser)
	fmt.Printf("  model:      %s\n", cfg.OpenAI.Model)
	fmt.Printf("  pushover:   %v\n", cfg.Pushover.UserKey != "" && cfg.Pushover.APIToken != "")
	if cfg.Journal.Path != "" {
		fmt.Printf("  journal:    %s\n", cfg.Journal.Path)
	} else {
		fmt.Println("  journal:    disabled")
	}

	if fingerprint, err := config.Fingerprint(configPath); err == nil {
		fmt.Printf("  fingerprint (blake3): %s\n", fingerprint)
	}
	return 0
}

func runDeliveries(args []string) int {
	fs := flag.NewFlagSet("deliveries", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum number of deliveries to show")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	configPath, err := resolveConfigPath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if cfg.Journal.Path == "" {
		fmt.Fprintln(os.Stderr, "Delivery journal is disabled (journal.path is empty)")
		return 1
	}

	ctx := context.Background()
	j, err := journal.Open(ctx, cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		return 1
	}
	defer j.Close()

	deliveries, err := j.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read journal: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(deliveries, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	if len(deliveries) == 0 {
		fmt.Println("No deliveries recorded.")
		return 0
	}
	for _, d := range deliveries {
		fmt.Printf("%s  %-20s  %-13s  %-18s  sender=%s issue=%d\n",
			d.CreatedAt.Format("2006-01-02 15:04:05"),
			d.Event+"/"+d.Action,
			d.State,
			d.ID,
			d.Sender,
			d.IssueNumber,
		)
	}
	return 0
}
