package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lmittmann/tint"

	"voice-relay/internal/config"
	"voice-relay/internal/metrics"
	"voice-relay/internal/signalling"
)

func main() {
	configDir := flag.String("config", "./conf", "directory with server, security, webrtc and relay config files")
	flag.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})))

	manager, err := config.NewManager(*configDir)
	if err != nil {
		slog.Error("failed to load configuration", "dir", *configDir, "error", err)
		os.Exit(1)
	}
	cfg := manager.Get()

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})

	server, err := signalling.NewServer(manager, app)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	server.SetupRoutes()
	server.Start()

	metrics.StartTime.Set(float64(time.Now().Unix()))

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	if cfg.Security.TLSCrtFile != nil && cfg.Security.TLSKeyFile != nil {
		slog.Info("running TLS server", "addr", addr)
		if err := app.ListenTLS(addr, *cfg.Security.TLSCrtFile, *cfg.Security.TLSKeyFile); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("running server", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
