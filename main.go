// Command passenger is the command-line passenger app: it signs in, lists
// and books trips, and rates or reports drivers of booked trips.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"passenger-client/api"
	"passenger-client/config"
)

const usageText = `Usage: passenger [-config path] <command> [args]

Commands:
  signup   -email -username -phone -password -confirm
  login    -email [-password]
  logout
  whoami
  trips    [-near lat,lon] [-technique geohashing|rtree] [-retries n]
  book     [-yes] <tripID> <seats>
  bookings
  rate     <bookingID> <stars>
  report   <bookingID> <reason...>
  chat
`

func main() {
	configPath := flag.String("config", ".", "Config file or directory containing config.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	a, err := newApp(ctx, cfg, newLogger(cfg.Log.Level), os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.dispatch(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		a.Close()
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// userMessage flattens any failure into the one line the passenger sees.
// The server's own message wins when there is one.
func userMessage(err error) string {
	if msg := api.Message(err, ""); msg != "" {
		return msg
	}
	if errors.Is(err, api.ErrMissingToken) {
		return "You are not logged in. Run `passenger login` first."
	}
	msg := err.Error()
	if msg == "" {
		return "Something went wrong"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
