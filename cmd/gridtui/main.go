package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datagrid/internal/application"
	"github.com/JonMunkholm/datagrid/internal/backend/rest"
	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

func main() {
	// Load .env file if it exists; the terminal belongs to the UI, so no logging yet
	_ = godotenv.Overload()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Logs go to a file while the UI owns the terminal
	if cfg.Logging.File == "" {
		cfg.Logging.File = "gridtui.log"
	}
	logger, logCloser := logging.Setup(cfg.Logging)
	defer logCloser.Close()

	client := rest.New(cfg.APIURL,
		rest.WithAPIKey(cfg.APIKey),
		rest.WithUserID(cfg.UserID),
	)

	m, err := application.New(*cfg, client, client, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid grid settings:", err)
		os.Exit(1)
	}

	logger.Info("client started", "api", cfg.APIURL, "table", cfg.Table)

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(application.Model); ok {
		fm.Close()
	}
	if err != nil {
		logger.Error("client stopped", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
