package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"passenger-client/api"
	"passenger-client/booking"
	"passenger-client/config"
	"passenger-client/devserver"
	"passenger-client/session"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	backend := httptest.NewServer(devserver.New(devserver.Options{BcryptCost: bcrypt.MinCost, Chat: true}, quiet).Handler(nil))
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	yaml := fmt.Sprintf("backend:\n  base_url: %s\nchat:\n  base_url: %s\nstorage:\n  driver: badger\n  path: %s\n",
		backend.URL, backend.URL, filepath.Join(dir, "store"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

// runCmd runs one CLI invocation with a fresh app, the way separate
// processes would share only the store on disk.
func runCmd(t *testing.T, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	ctx := context.Background()
	var out bytes.Buffer
	a, err := newApp(ctx, cfg, quiet, strings.NewReader(stdin), &out)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	err = a.dispatch(ctx, args[0], args[1:])
	return out.String(), err
}

func TestSessionSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	if _, err := runCmd(t, cfg, "", "signup", "-email", "kamal@example.com", "-username", "kamal",
		"-password", "pw", "-confirm", "pw"); err != nil {
		t.Fatal(err)
	}
	out, err := runCmd(t, cfg, "pw\n", "login", "-email", "kamal@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Welcome, kamal!") {
		t.Errorf("login output = %q", out)
	}

	out, _ = runCmd(t, cfg, "", "whoami")
	if !strings.Contains(out, "kamal <kamal@example.com>") {
		t.Errorf("whoami after restart = %q", out)
	}

	if _, err := runCmd(t, cfg, "", "logout"); err != nil {
		t.Fatal(err)
	}
	out, _ = runCmd(t, cfg, "", "whoami")
	if !strings.Contains(out, "Not logged in.") {
		t.Errorf("whoami after logout = %q", out)
	}
}

func TestBookRateReport(t *testing.T) {
	cfg := testConfig(t)
	runCmd(t, cfg, "", "signup", "-email", "k@example.com", "-username", "k", "-password", "pw", "-confirm", "pw")
	runCmd(t, cfg, "", "login", "-email", "k@example.com", "-password", "pw")

	out, err := runCmd(t, cfg, "y\n", "book", "trip-colombo-kandy", "3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "3 seat(s) x Rs. 500.00 = Rs. 1500.00") || !strings.Contains(out, "Trip booked successfully") {
		t.Fatalf("book output = %q", out)
	}

	// The trip is full now, so the backend no longer lists it.
	if _, err := runCmd(t, cfg, "", "book", "-yes", "trip-colombo-kandy", "1"); !errors.Is(err, booking.ErrTripNotFound) {
		t.Errorf("booking a full trip: err = %v", err)
	}

	out, err = runCmd(t, cfg, "", "bookings")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "Colombo → Kandy") {
		t.Fatalf("bookings output = %q", out)
	}
	bookingID := strings.Fields(lines[1])[0]

	out, err = runCmd(t, cfg, "", "rate", bookingID, "5")
	if err != nil || !strings.Contains(out, "Excellent") {
		t.Errorf("rate: err = %v, out = %q", err, out)
	}
	if _, err := runCmd(t, cfg, "", "rate", bookingID, "4"); err == nil {
		t.Error("second rating accepted")
	}
	if _, err := runCmd(t, cfg, "", "report", bookingID, "rude", "driver"); err != nil {
		t.Errorf("report: %v", err)
	}
	out, _ = runCmd(t, cfg, "", "bookings")
	if !strings.Contains(out, "rated, reported") {
		t.Errorf("bookings after feedback = %q", out)
	}
}

func TestTripsNear(t *testing.T) {
	cfg := testConfig(t)
	runCmd(t, cfg, "", "signup", "-email", "k@example.com", "-username", "k", "-password", "pw", "-confirm", "pw")
	runCmd(t, cfg, "", "login", "-email", "k@example.com", "-password", "pw")

	out, err := runCmd(t, cfg, "", "trips", "-near", "7.29,80.63", "-technique", "rtree")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "trip-kandy-nuwaraeliya") || strings.Contains(out, "trip-galle-colombo") {
		t.Errorf("nearby trips = %q", out)
	}
}

func TestCommandsNeedLogin(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{{"trips"}, {"book", "-yes", "trip-colombo-kandy", "1"}, {"bookings"}} {
		_, err := runCmd(t, cfg, "", args...)
		if !errors.Is(err, api.ErrMissingToken) {
			t.Errorf("%v: err = %v", args, err)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", session.ErrAuthFailed, &api.Error{Kind: api.KindAuth, Status: 401, Message: "Invalid credentials"}), "Invalid credentials"},
		{&api.Error{Kind: api.KindAuth, Err: api.ErrMissingToken}, "You are not logged in. Run `passenger login` first."},
		{session.ErrPasswordMismatch, "Passwords do not match"},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestParseLatLon(t *testing.T) {
	lat, lon, err := parseLatLon(" 6.9271, 79.8612 ")
	if err != nil || lat != 6.9271 || lon != 79.8612 {
		t.Errorf("got %v %v %v", lat, lon, err)
	}
	for _, bad := range []string{"", "6.9", "x,1", "91,0", "0,181"} {
		if _, _, err := parseLatLon(bad); err == nil {
			t.Errorf("parseLatLon(%q) accepted", bad)
		}
	}
}
