package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/logging"
	"github.com/openboard/openboard/pkg/server"
	"github.com/openboard/openboard/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP bind address (REST API, /ws, /metrics)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", "", "HS256 signing secret (falls back to $OPENBOARD_JWT_SECRET)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Session token lifetime")
	flag.StringVar(&cfg.BoardsFile, "boards-file", "", "YAML file defining boards to seed on startup")
	flag.DurationVar(&cfg.AdmissionTimeout, "admission-timeout", 0, "Realtime admission deadline (0 = default)")
	flag.DurationVar(&cfg.IdleTimeout, "idle-timeout", 0, "Realtime idle read deadline (0 = default)")
	flag.BoolVar(&cfg.ExportUsers, "export-users", false, "Export all users as YAML and exit")
	flag.BoolVar(&cfg.ExportBoards, "export-boards", false, "Export all boards as YAML and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("OPENBOARD_JWT_SECRET")
	}

	// Handle export commands (run and exit)
	if cfg.ExportUsers || cfg.ExportBoards {
		st, err := datastore.NewProviderFactory(cfg.DBPath)
		if err != nil {
			slog.Error("open database", "err", err)
			os.Exit(1)
		}
		defer st.Close()

		if cfg.ExportUsers {
			data, err := server.ExportUsersYAML(st)
			if err != nil {
				slog.Error("export users", "err", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		}
		if cfg.ExportBoards {
			data, err := server.ExportBoardsYAML(st)
			if err != nil {
				slog.Error("export boards", "err", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		}
		return
	}

	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "a signing secret is required: pass -jwt-secret or set OPENBOARD_JWT_SECRET")
		os.Exit(1)
	}

	st, err := datastore.NewProviderFactory(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, server.Dependencies{Store: st})
	if err != nil {
		slog.Error("configure server", "err", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
