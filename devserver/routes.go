package devserver

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Handler wires the routes. Access logs go to accessLog when it is non-nil.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	router := mux.NewRouter()

	// Passenger endpoints
	router.HandleFunc("/api/passenger/signup", s.SignUp).Methods("POST")
	router.HandleFunc("/api/passenger/login", s.Login).Methods("POST")
	router.HandleFunc("/api/passenger/profile", s.requireAuth(s.Profile)).Methods("GET")

	// Trip endpoints
	router.HandleFunc("/api/trips", s.requireAuth(s.ListTrips)).Methods("GET")
	router.HandleFunc("/api/book-trip", s.requireAuth(s.BookTrip)).Methods("POST")
	router.HandleFunc("/api/booked-trips", s.requireAuth(s.BookedTrips)).Methods("GET")
	router.HandleFunc("/api/bookings/mine", s.requireAuth(s.BookedTrips)).Methods("GET")

	// Feedback endpoints
	router.HandleFunc("/api/rate-driver", s.requireAuth(s.RateDriver)).Methods("POST")
	router.HandleFunc("/api/report-driver", s.requireAuth(s.ReportDriver)).Methods("POST")

	if s.opts.Chat {
		router.HandleFunc("/webhooks/rest/webhook", s.ChatWebhook).Methods("POST")
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	var h http.Handler = cors(router)
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return h
}
