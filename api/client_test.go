package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"passenger-client/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, quiet)
}

func TestMissingTokenSendsNothing(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	ctx := context.Background()

	if _, err := c.ListTrips(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("ListTrips err = %v", err)
	}
	if _, err := c.BookTrip(ctx, "  ", models.BookingRequest{TripID: "t1", SeatsBooked: 1}); KindOf(err) != KindAuth {
		t.Errorf("BookTrip kind = %q", KindOf(err))
	}
	for _, token := range []string{"", "null", "undefined", " null "} {
		if _, err := c.Profile(ctx, token); !errors.Is(err, ErrMissingToken) {
			t.Errorf("Profile(%q) err = %v", token, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("server saw %d requests", n)
	}
}

func TestBearerHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[{"_id":"t1","pricePerSeat":500,"seatsAvailable":3}]`))
	})
	trips, err := c.ListTrips(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(trips) != 1 || trips[0].ID != "t1" || trips[0].PricePerSeat != 500 {
		t.Errorf("trips = %+v", trips)
	}
}

func TestProfileAcceptsPlainID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"u42","username":"amara","email":"amara@example.com"}`)
	})
	u, err := c.Profile(context.Background(), "tok")
	if err != nil || u.ID != "u42" {
		t.Fatalf("Profile = %+v, %v", u, err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Invalid credentials"}`, KindAuth, "Invalid credentials"},
		{"error field", http.StatusBadRequest, `{"error":"bad seats"}`, KindBusiness, "bad seats"},
		{"plain text", http.StatusConflict, "taken", KindBusiness, "taken"},
		{"empty body", http.StatusInternalServerError, "", KindBusiness, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
			if KindOf(err) != tt.kind {
				t.Errorf("kind = %q, want %q", KindOf(err), tt.kind)
			}
			if got := Message(err, "fallback"); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("IsStatus(%d) = false for %v", tt.status, err)
			}
		})
	}
}

func TestLoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	if _, err := c.Login(context.Background(), models.Credentials{}); KindOf(err) != KindAuth {
		t.Errorf("err = %v", err)
	}
}

func TestBookTripUnsuccessfulBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"Trip already departed"}`)
	})
	resp, err := c.BookTrip(context.Background(), "tok", models.BookingRequest{TripID: "t1", SeatsBooked: 1, TotalAmount: 500})
	if KindOf(err) != KindBusiness || Message(err, "") != "Trip already departed" {
		t.Errorf("err = %v", err)
	}
	if resp.Success {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListBookingsFallback(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/booked-trips" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `[{"trip":{"_id":"t1"},"booking":{"_id":"b1","tripId":"t1","seatsBooked":2}}]`)
	})
	booked, err := c.ListBookings(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[1] != "/api/bookings/mine" {
		t.Errorf("paths = %v", paths)
	}
	if len(booked) != 1 || booked[0].Booking.ID != "b1" || booked[0].Trip.ID != "t1" {
		t.Errorf("booked = %+v", booked)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, quiet)
	err := c.SignUp(context.Background(), models.Registration{Email: "a@b.c"})
	if KindOf(err) != KindNetwork {
		t.Errorf("kind = %q (%v)", KindOf(err), err)
	}
}
