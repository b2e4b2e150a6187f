package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chatlens/agent"
	"chatlens/config"
	"chatlens/provider"
	"chatlens/storage"
	"chatlens/tools"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "import":
		err = runImport(cfg, os.Args[2:])
	case "ask":
		err = runAsk(ctx, cfg, os.Args[2:])
	case "version":
		fmt.Printf("chatlens %s (%s)\n", Version, License)
		err = nil
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `chatlens - ask questions about an imported chat-log archive

Usage:
  chatlens import <export.json>        load a chat-log export into the archive
  chatlens ask [flags] "<question>"    answer a question using the archive
  chatlens version                     print version

Ask flags:
  -stream        stream the answer and tool progress as it is produced
  -year  <n>     restrict the whole run to a calendar year
  -month <n>     restrict the whole run to a month of -year (1-12)
  -rounds <n>    override the tool-round budget
`)
}

func runImport(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chatlens import <export.json>")
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.ImportJSON(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d messages into %s\n", count, cfg.DatabasePath())
	return nil
}

func runAsk(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	stream := fs.Bool("stream", false, "stream the answer as it is produced")
	year := fs.Int("year", 0, "restrict the run to a calendar year")
	month := fs.Int("month", 0, "restrict the run to a month of -year")
	rounds := fs.Int("rounds", 0, "override the tool-round budget")
	if err := fs.Parse(args); err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: chatlens ask [flags] \"<question>\"")
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterQueryTools(registry); err != nil {
		return err
	}

	toolCtx := &tools.Context{
		Dataset: cfg.DatabasePath(),
		Filter:  tools.ResolveTimeRange(*year, *month, nil),
		Store:   store,
	}

	maxRounds := cfg.Agent.MaxToolRounds
	if *rounds > 0 {
		maxRounds = *rounds
	}

	a := agent.New(p, registry,
		agent.WithToolContext(toolCtx),
		agent.WithMaxToolRounds(maxRounds),
		agent.WithTemperature(cfg.Agent.Temperature),
		agent.WithMaxTokens(cfg.Agent.MaxTokens),
	)

	if *stream {
		return askStreaming(ctx, a, question)
	}
	return askBuffered(ctx, a, question)
}

func askBuffered(ctx context.Context, a *agent.Agent, question string) error {
	result, err := a.Execute(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(result.Content)
	printSummary(result)
	return nil
}

func askStreaming(ctx context.Context, a *agent.Agent, question string) error {
	events := make(chan agent.Event, 64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Type {
			case agent.EventContent:
				fmt.Print(ev.Content)
			case agent.EventToolStart:
				fmt.Fprintf(os.Stderr, "[tool] %s %s\n", ev.Name, compactArgs(ev.Args))
			case agent.EventToolResult:
				if ev.Err != "" {
					fmt.Fprintf(os.Stderr, "[tool] %s failed: %s\n", ev.Name, ev.Err)
				}
			case agent.EventDone:
				fmt.Println()
			case agent.EventError:
				fmt.Fprintf(os.Stderr, "\n[error] %s\n", ev.Err)
			}
		}
	}()

	result, err := a.ExecuteStream(ctx, question, events)
	<-done
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}

func printSummary(result *agent.Result) {
	if result.ToolRounds == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "(%d tool rounds: %s)\n", result.ToolRounds, strings.Join(result.ToolsUsed, ", "))
}

func compactArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
