// Command devserver runs the in-memory ride-booking backend on
// devserver.addr for local use of the passenger CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"passenger-client/config"
	"passenger-client/devserver"
)

func main() {
	configPath := flag.String("config", ".", "Config file or directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := devserver.New(devserver.Options{
		JWTSecret: cfg.DevServer.JWTSecret,
		Chat:      cfg.DevServer.Chat,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.DevServer.Addr,
		Handler:           srv.Handler(os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Server started on %s", cfg.DevServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
