// Package devserver is an in-memory backend that speaks the same HTTP
// contract as the production ride-booking server. It exists for local demos
// and for exercising the client end to end in tests.
package devserver

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"passenger-client/models"
)

type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// Chat enables the /webhooks/rest/webhook echo assistant.
	Chat bool
	// SeedTrips replaces the built-in trip list when non-nil.
	SeedTrips []models.Trip
}

type passenger struct {
	user         models.User
	passwordHash []byte
}

type bookingRecord struct {
	booking     models.Booking
	passengerID string
}

type Server struct {
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	passengers   map[string]*passenger // keyed by email
	trips        map[string]*models.Trip
	tripOrder    []string
	bookings     map[string]*bookingRecord
	bookingOrder []string
	ratings      map[string][]int // trip id -> submitted stars
	reports      map[string]string
}

func New(opts Options, logger *slog.Logger) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:       opts,
		logger:     logger,
		passengers: make(map[string]*passenger),
		trips:      make(map[string]*models.Trip),
		bookings:   make(map[string]*bookingRecord),
		ratings:    make(map[string][]int),
		reports:    make(map[string]string),
	}

	seed := opts.SeedTrips
	if seed == nil {
		seed = defaultTrips()
	}
	for _, t := range seed {
		trip := t
		if trip.Status == "" {
			trip.Status = models.TripStatusAvailable
		}
		s.trips[trip.ID] = &trip
		s.tripOrder = append(s.tripOrder, trip.ID)
	}
	return s
}

func defaultTrips() []models.Trip {
	return []models.Trip{
		{
			ID:             "trip-colombo-kandy",
			StartLocation:  models.Location{Latitude: 6.9271, Longitude: 79.8612, Address: "Fort Railway Station, Colombo, Sri Lanka"},
			Destination:    models.Location{Latitude: 7.2906, Longitude: 80.6337, Address: "Temple of the Tooth, Kandy, Sri Lanka"},
			Date:           "2026-11-02T07:30:00Z",
			SeatsAvailable: 3,
			PricePerSeat:   500,
			Description:    "Morning ride, one stop at Kadugannawa",
			DriverName:     "Nimal Perera",
			Vehicle:        "Toyota Axio",
			Rating:         4.6,
		},
		{
			ID:             "trip-galle-colombo",
			StartLocation:  models.Location{Latitude: 6.0535, Longitude: 80.2210, Address: "Galle Fort, Galle, Sri Lanka"},
			Destination:    models.Location{Latitude: 6.9271, Longitude: 79.8612, Address: "Bambalapitiya, Colombo, Sri Lanka"},
			Date:           "2026-11-03T16:00:00Z",
			SeatsAvailable: 2,
			PricePerSeat:   750,
			Description:    "Expressway, air conditioned",
			DriverName:     "Kasun Silva",
			Vehicle:        "Honda Vezel",
			Rating:         4.2,
		},
		{
			ID:             "trip-kandy-nuwaraeliya",
			StartLocation:  models.Location{Latitude: 7.2906, Longitude: 80.6337, Address: "Kandy City Centre, Kandy, Sri Lanka"},
			Destination:    models.Location{Latitude: 6.9497, Longitude: 80.7891, Address: "Gregory Lake, Nuwara Eliya, Sri Lanka"},
			Date:           "2026-11-05T09:00:00Z",
			SeatsAvailable: 4,
			PricePerSeat:   900,
			Description:    "Scenic hill country route",
			DriverName:     "Ruwan Jayasuriya",
			Vehicle:        "Suzuki Wagon R",
			Rating:         4.8,
		},
	}
}
