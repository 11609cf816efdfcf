package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/cmppfeed/api"
	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	f, err := tea.LogToFile(cfg.LogFile, "cmppfeed")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger := logging.NewText(f, slog.LevelDebug)

	ctx := context.Background()

	var store session.ReadWriter
	if cfg.Ephemeral {
		store = session.NewMemoryStore()
	} else {
		sqlStore, err := session.OpenSQLite(ctx, cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	client := api.New(cfg.ServerURL, nil)
	logger.Info(ctx, "client starting", "server", client.BaseURL(), "db", cfg.DBPath, "ephemeral", cfg.Ephemeral)

	nav := &programNavigator{}
	net := NewNetwork(ctx, client, store, nav, logger)

	p := tea.NewProgram(initialModel(net), tea.WithAltScreen())
	nav.program = p
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
