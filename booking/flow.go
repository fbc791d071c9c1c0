// Package booking drives a passenger through choosing a trip, picking a seat
// count, confirming the price and submitting the reservation.
//
//	Browsing -> SeatSelection -> Confirmation -> Submitted
//	                                  ^               |
//	                                  +--- failure ---+
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"passenger-client/api"
	"passenger-client/models"
	"passenger-client/session"
)

type State int

const (
	Browsing State = iota
	SeatSelection
	Confirmation
	Submitted
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case SeatSelection:
		return "seat-selection"
	case Confirmation:
		return "confirmation"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidState     = errors.New("action not allowed in current state")
	ErrTripNotFound     = errors.New("trip not found")
	ErrInvalidSeatCount = errors.New("invalid seat count")
	ErrSubmitInFlight   = errors.New("booking submission already in progress")
)

// GenericFailure is shown when the server gives no reason.
const GenericFailure = "Booking failed. Please try again."

type TripService interface {
	ListTrips(ctx context.Context, token string) ([]models.Trip, error)
	BookTrip(ctx context.Context, token string, req models.BookingRequest) (models.BookingResponse, error)
}

// Quote is what the Confirmation step shows.
type Quote struct {
	Trip        models.Trip
	Seats       int
	TotalAmount float64
}

type Outcome struct {
	Success bool
	Message string
	Booking models.Booking
}

type Flow struct {
	svc    TripService
	sess   *session.Session
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	trips    models.ListResult[models.Trip]
	selected int
	quote    Quote
	outcome  *Outcome
	inFlight bool
}

// NewFlow starts in Browsing with no trips loaded. sess may be nil; every
// network step then fails with api.ErrMissingToken.
func NewFlow(svc TripService, sess *session.Session, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		svc:      svc,
		sess:     sess,
		logger:   logger,
		trips:    models.Loading[models.Trip](),
		selected: -1,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Trips() models.ListResult[models.Trip] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trips
}

// Quote returns the pending quote; valid in Confirmation and Submitted.
func (f *Flow) Quote() Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote
}

// Outcome returns the last submission result, or nil if none was made.
func (f *Flow) Outcome() *Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

func (f *Flow) token() string {
	if !f.sess.Active() {
		return ""
	}
	return f.sess.Token
}

// LoadTrips fetches the trip list and returns the flow to Browsing.
func (f *Flow) LoadTrips(ctx context.Context) models.ListResult[models.Trip] {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return models.Failed[models.Trip](ErrSubmitInFlight)
	}
	f.resetLocked()
	f.trips = models.Loading[models.Trip]()
	f.mu.Unlock()

	var result models.ListResult[models.Trip]
	token := f.token()
	if token == "" {
		result = models.Failed[models.Trip](&api.Error{Kind: api.KindAuth, Err: api.ErrMissingToken})
	} else if trips, err := f.svc.ListTrips(ctx, token); err != nil {
		f.logger.Warn("fetch trips failed", "err", err)
		result = models.Failed[models.Trip](err)
	} else {
		result = models.Loaded(trips)
	}

	f.mu.Lock()
	f.trips = result
	f.mu.Unlock()
	return result
}

// SelectTrip moves Browsing -> SeatSelection for a trip in the loaded list.
func (f *Flow) SelectTrip(id string) (models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return models.Trip{}, ErrSubmitInFlight
	}
	if f.state != Browsing {
		return models.Trip{}, fmt.Errorf("select trip while %s: %w", f.state, ErrInvalidState)
	}
	for i, t := range f.trips.Items {
		if t.ID == id {
			f.selected = i
			f.state = SeatSelection
			return t, nil
		}
	}
	return models.Trip{}, fmt.Errorf("%w: %s", ErrTripNotFound, id)
}

// EnterSeats parses the seat field and moves SeatSelection -> Confirmation.
// The count must be a whole number between 1 and the trip's free seats; on
// rejection the state is unchanged.
func (f *Flow) EnterSeats(input string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return Quote{}, ErrSubmitInFlight
	}
	if f.state != SeatSelection {
		return Quote{}, fmt.Errorf("enter seats while %s: %w", f.state, ErrInvalidState)
	}
	trip := f.trips.Items[f.selected]

	seats, err := ParseSeats(input, trip.SeatsAvailable)
	if err != nil {
		return Quote{}, err
	}

	f.quote = Quote{
		Trip:        trip,
		Seats:       seats,
		TotalAmount: models.TotalAmount(seats, trip.PricePerSeat),
	}
	f.state = Confirmation
	return f.quote, nil
}

// ParseSeats validates free-text seat input against the seats on offer.
func ParseSeats(input string, available int) (int, error) {
	seats, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidSeatCount, input)
	}
	if seats < 1 {
		return 0, fmt.Errorf("%w: at least one seat is required", ErrInvalidSeatCount)
	}
	if seats > available {
		return 0, fmt.Errorf("%w: only %d seats available", ErrInvalidSeatCount, available)
	}
	return seats, nil
}

// Back steps Confirmation -> SeatSelection -> Browsing. It is refused while
// a submission is outstanding.
func (f *Flow) Back() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return f.state, ErrSubmitInFlight
	}
	switch f.state {
	case Confirmation:
		f.state = SeatSelection
	case SeatSelection:
		f.state = Browsing
		f.selected = -1
	}
	return f.state, nil
}

// Confirm submits the quoted booking. On success the flow is Submitted and
// the local trip copy loses the booked seats; on failure it returns to
// Confirmation so the passenger may retry. Retrying sends a new request;
// the backend offers no idempotency key.
func (f *Flow) Confirm(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	if f.state != Confirmation {
		state := f.state
		f.mu.Unlock()
		return Outcome{}, fmt.Errorf("confirm while %s: %w", state, ErrInvalidState)
	}
	quote := f.quote
	f.inFlight = true
	f.mu.Unlock()

	req := models.BookingRequest{
		TripID:      quote.Trip.ID,
		SeatsBooked: quote.Seats,
		TotalAmount: quote.TotalAmount,
	}

	var (
		resp models.BookingResponse
		err  error
	)
	if token := f.token(); token == "" {
		err = &api.Error{Kind: api.KindAuth, Err: api.ErrMissingToken}
	} else {
		resp, err = f.svc.BookTrip(ctx, token, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		out := Outcome{Message: api.Message(err, GenericFailure)}
		f.outcome = &out
		f.state = Confirmation
		f.logger.Warn("booking failed", "trip", req.TripID, "seats", req.SeatsBooked, "err", err)
		return out, err
	}

	booking := models.Booking{TripID: req.TripID, SeatsBooked: req.SeatsBooked, TotalAmount: req.TotalAmount}
	if resp.Booking != nil {
		booking = *resp.Booking
	}
	booking.HasRated = false
	booking.HasReported = false

	msg := resp.Message
	if msg == "" {
		msg = "Trip booked successfully"
	}
	out := Outcome{Success: true, Message: msg, Booking: booking}
	f.outcome = &out
	f.state = Submitted

	for i := range f.trips.Items {
		if f.trips.Items[i].ID == req.TripID {
			f.trips.Items[i].SeatsAvailable -= req.SeatsBooked
			break
		}
	}
	f.logger.Info("trip booked", "trip", req.TripID, "seats", req.SeatsBooked, "total", req.TotalAmount)
	return out, nil
}

// Reset discards the selection and quote and returns to Browsing, keeping the
// loaded trips. It is refused while a submission is outstanding.
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrSubmitInFlight
	}
	f.resetLocked()
	return nil
}

func (f *Flow) resetLocked() {
	f.state = Browsing
	f.selected = -1
	f.quote = Quote{}
	f.outcome = nil
}
