// Package bookings lists the passenger's booked trips and handles the
// one-shot rate and report actions on each of them.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"passenger-client/api"
	"passenger-client/models"
	"passenger-client/session"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5 stars")
	ErrAlreadyRated    = errors.New("driver already rated for this booking")
	ErrAlreadyReported = errors.New("driver already reported for this booking")
	ErrActionInFlight  = errors.New("a request for this booking is already in progress")
)

type Service interface {
	ListBookings(ctx context.Context, token string) ([]models.BookedTrip, error)
	RateDriver(ctx context.Context, token string, req models.RatingRequest) error
	ReportDriver(ctx context.Context, token string, req models.ReportRequest) error
}

type action string

const (
	actionRate   action = "rate"
	actionReport action = "report"
)

type Tracker struct {
	svc    Service
	sess   *session.Session
	logger *slog.Logger

	mu      sync.Mutex
	list    models.ListResult[models.BookedTrip]
	pending map[string]action
}

func NewTracker(svc Service, sess *session.Session, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		svc:     svc,
		sess:    sess,
		logger:  logger,
		list:    models.Loading[models.BookedTrip](),
		pending: make(map[string]action),
	}
}

func (t *Tracker) token() string {
	if !t.sess.Active() {
		return ""
	}
	return t.sess.Token
}

// List returns a copy of the last loaded result.
func (t *Tracker) List() models.ListResult[models.BookedTrip] {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.list
	out.Items = append([]models.BookedTrip(nil), t.list.Items...)
	return out
}

func (t *Tracker) Load(ctx context.Context) models.ListResult[models.BookedTrip] {
	var result models.ListResult[models.BookedTrip]
	token := t.token()
	if token == "" {
		result = models.Failed[models.BookedTrip](&api.Error{Kind: api.KindAuth, Err: api.ErrMissingToken})
	} else if booked, err := t.svc.ListBookings(ctx, token); err != nil {
		t.logger.Warn("fetch bookings failed", "err", err)
		result = models.Failed[models.BookedTrip](err)
	} else {
		result = models.Loaded(booked)
	}

	t.mu.Lock()
	t.list = result
	t.mu.Unlock()
	return t.List()
}

// Rate sends a 1-5 star rating for a loaded booking. Only one request per
// booking may be outstanding; after success the booking is marked rated and
// further ratings are refused locally.
func (t *Tracker) Rate(ctx context.Context, bookingID string, stars int) error {
	if stars < 1 || stars > 5 {
		return ErrInvalidRating
	}
	return t.act(ctx, bookingID, actionRate,
		func(b models.Booking) error {
			if b.HasRated {
				return ErrAlreadyRated
			}
			return nil
		},
		func(token string) error {
			return t.svc.RateDriver(ctx, token, models.RatingRequest{BookingID: bookingID, Rating: stars})
		},
		func(b *models.Booking) { b.HasRated = true },
	)
}

// Report files a complaint about the driver of a loaded booking, once.
func (t *Tracker) Report(ctx context.Context, bookingID, reason string) error {
	reason = strings.TrimSpace(reason)
	return t.act(ctx, bookingID, actionReport,
		func(b models.Booking) error {
			if b.HasReported {
				return ErrAlreadyReported
			}
			return nil
		},
		func(token string) error {
			return t.svc.ReportDriver(ctx, token, models.ReportRequest{BookingID: bookingID, Reason: reason})
		},
		func(b *models.Booking) { b.HasReported = true },
	)
}

func (t *Tracker) act(
	ctx context.Context,
	bookingID string,
	kind action,
	check func(models.Booking) error,
	send func(token string) error,
	mark func(*models.Booking),
) error {
	key := bookingID + ":" + string(kind)

	t.mu.Lock()
	i := t.indexLocked(bookingID)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	if err := check(t.list.Items[i].Booking); err != nil {
		t.mu.Unlock()
		return err
	}
	if _, busy := t.pending[key]; busy {
		t.mu.Unlock()
		return ErrActionInFlight
	}
	t.pending[key] = kind
	t.mu.Unlock()

	var err error
	if token := t.token(); token == "" {
		err = &api.Error{Kind: api.KindAuth, Err: api.ErrMissingToken}
	} else {
		err = send(token)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, key)
	if err != nil {
		t.logger.Warn("booking action failed", "booking", bookingID, "action", kind, "err", err)
		return err
	}
	// The list may have been reloaded while the request was out.
	if i := t.indexLocked(bookingID); i >= 0 {
		mark(&t.list.Items[i].Booking)
	}
	t.logger.Info("booking action sent", "booking", bookingID, "action", kind)
	return nil
}

func (t *Tracker) indexLocked(bookingID string) int {
	for i, bt := range t.list.Items {
		if bt.Booking.ID == bookingID {
			return i
		}
	}
	return -1
}
