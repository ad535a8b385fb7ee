package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func usage() {
	fmt.Fprintf(os.Stderr, `scrapeview - terminal client for the scraping portal

Usage:
  scrapeview login              authenticate with Google
  scrapeview logout             clear identity and cached results
  scrapeview scrape <url>       fresh scrape, replaces cached results
  scrapeview refresh            re-scrape the last URL, append new unique items
  scrapeview status             show session, cache and backend health
  scrapeview export [-outdir D] write cached results as an Atom feed
  scrapeview clear              erase all persisted state
  scrapeview watch              monitor backend health until unreachable
`)
}

func main() {
	cfg := LoadConfig()
	configureLogging(cfg.LogLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	store, err := OpenSessionStore(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client := NewBackendClient(cfg.BackendURL)
	dashboard := NewDashboard(store, client, NewSummaryFetcher())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	if err := runCommand(ctx, command, args, cfg, client, dashboard); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, command string, args []string, cfg Config, client *BackendClient, dashboard *Dashboard) error {
	switch command {
	case "login":
		return cmdLogin(ctx, cfg, dashboard)
	case "logout":
		return dashboard.Logout()
	case "scrape":
		if len(args) < 1 {
			return fmt.Errorf("%w: usage: scrapeview scrape <url>", errValidation)
		}
		return cmdScrape(ctx, dashboard, args[0])
	case "refresh":
		return cmdRefresh(ctx, dashboard)
	case "status":
		return cmdStatus(ctx, client, dashboard)
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		outDir := fs.String("outdir", ".", "directory where the feed file will be saved")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cmdExport(dashboard, *outDir)
	case "clear":
		return cmdClear(dashboard)
	case "watch":
		return cmdWatch(ctx, client, dashboard)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func cmdLogin(ctx context.Context, cfg Config, dashboard *Dashboard) error {
	if err := cfg.ValidateForLogin(); err != nil {
		return err
	}

	identity, err := NewAuthenticator(cfg).Login(ctx)
	if err != nil {
		return err
	}
	if err := dashboard.SetIdentity(identity); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s <%s>\n", identity.Name, identity.Email)
	if !dashboard.Results().IsEmpty() {
		fmt.Printf("Restored %d cached items from %s\n", dashboard.Results().TotalStories(), dashboard.LastURL())
	}
	return nil
}

func cmdScrape(ctx context.Context, dashboard *Dashboard, rawURL string) error {
	outcome, err := dashboard.Scrape(ctx, rawURL)
	if err != nil {
		return err
	}
	fmt.Println(outcome.Message)
	if !outcome.Results.IsEmpty() {
		fmt.Print(renderResults(outcome.Results, outcome.Summary, dashboard.LastURL()))
	}
	return nil
}

func cmdRefresh(ctx context.Context, dashboard *Dashboard) error {
	outcome, err := dashboard.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Println(outcome.Message)
	return nil
}

func cmdStatus(ctx context.Context, client *BackendClient, dashboard *Dashboard) error {
	if identity := dashboard.Identity(); identity != nil {
		fmt.Printf("Logged in as %s <%s>\n", identity.Name, identity.Email)
	} else {
		fmt.Println("Not logged in")
	}

	if lastURL := dashboard.LastURL(); lastURL != "" {
		fmt.Printf("Cached: %d items from %s\n", dashboard.Results().TotalStories(), lastURL)
	} else {
		fmt.Println("Cached: nothing")
	}

	if err := client.Health(ctx); err != nil {
		fmt.Println("Backend: unreachable")
	} else {
		fmt.Println("Backend: alive")
	}
	return nil
}

func cmdExport(dashboard *Dashboard, outDir string) error {
	filename, err := exportFeed(dashboard, outDir)
	if err != nil {
		return err
	}
	fmt.Printf("Feed written to %s\n", filename)
	return nil
}

func cmdClear(dashboard *Dashboard) error {
	if err := dashboard.ClearAll(); err != nil {
		return err
	}
	fmt.Println("All persisted state cleared")
	return nil
}

func cmdWatch(ctx context.Context, client *BackendClient, dashboard *Dashboard) error {
	if dashboard.Identity() == nil {
		return fmt.Errorf("%w: log in before watching", errValidation)
	}

	fmt.Println("Watching backend health (Ctrl-C to stop)")
	monitor := NewHealthMonitor(client, dashboard.ForceLogout)
	monitor.Run(ctx)

	if monitor.Unreachable() {
		if status := dashboard.Status(); status.Active() {
			fmt.Fprintln(os.Stderr, status.Text)
		}
		return fmt.Errorf("%w: backend unreachable after %d consecutive failures", errSessionTerminated, monitor.ConsecutiveFailures())
	}
	return nil
}
