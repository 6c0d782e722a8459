package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jdelattre/localwave/internal/config"
	enginebeep "github.com/jdelattre/localwave/internal/engine/beep"
	"github.com/jdelattre/localwave/internal/icons"
	"github.com/jdelattre/localwave/internal/library"
	"github.com/jdelattre/localwave/internal/logging"
	"github.com/jdelattre/localwave/internal/mpris"
	"github.com/jdelattre/localwave/internal/notify"
	"github.com/jdelattre/localwave/internal/session"
	"github.com/jdelattre/localwave/internal/stderr"
	"github.com/jdelattre/localwave/internal/store"
	"github.com/jdelattre/localwave/internal/ui"
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	icons.Init(cfg.Icons)

	// Audio libraries write directly to fd 2; capture that before the
	// TUI takes over the terminal.
	if err := stderr.Start(log); err != nil {
		log.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	scanner := library.NewScanner(st, log)

	adapter := session.NewAdapter(enginebeep.Connect(log), log)
	ctrl := session.NewController(adapter, st, cfg.TickInterval(), log)
	ctrl.SetDefaultSpeed(cfg.Speed())
	ctrl.Start()
	defer ctrl.Close()

	if notifier, err := notify.New(); err != nil {
		log.Warn("desktop notifications unavailable", "err", err)
	} else {
		watcher := notify.Watch(ctrl.CurrentTrack, notifier, log)
		defer watcher.Stop()
	}

	if mprisAdapter, err := mpris.New(ctrl); err != nil {
		log.Warn("mpris unavailable", "err", err)
	} else {
		defer mprisAdapter.Close()
	}

	m := ui.New(ctrl, st, scanner, cfg.LibrarySources, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
