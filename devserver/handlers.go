package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"passenger-client/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// SignUp registers a new passenger.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "Email, username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create passenger")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passengers[email]; ok {
		writeError(w, http.StatusConflict, "Passenger already exists")
		return
	}
	p := &passenger{
		user: models.User{
			ID:          uuid.NewString(),
			Username:    req.Username,
			Email:       email,
			PhoneNumber: req.PhoneNumber,
		},
		passwordHash: hash,
	}
	s.passengers[email] = p
	s.logger.Info("passenger registered", "id", p.user.ID, "email", email)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Passenger registered", "id": p.user.ID})
}

// Login returns a signed token for valid credentials.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	p, ok := s.passengers[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(p.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(p.user.ID, p.user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Profile returns the authenticated passenger.
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	p := s.passengerByID(passengerID(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "Passenger not found")
		return
	}
	writeJSON(w, http.StatusOK, p.user)
}

type tripJSON struct {
	MongoID string `json:"_id"`
	models.Trip
}

// ListTrips returns every trip with free seats, keyed by "_id" like the
// production backend.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]tripJSON, 0, len(s.tripOrder))
	for _, id := range s.tripOrder {
		t := s.trips[id]
		if t.Status != models.TripStatusAvailable || t.SeatsAvailable <= 0 {
			continue
		}
		out = append(out, tripJSON{MongoID: t.ID, Trip: *t})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// BookTrip reserves seats on a trip.
func (s *Server) BookTrip(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.BookingResponse{Message: "Invalid request payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[req.TripID]
	switch {
	case !ok:
		writeJSON(w, http.StatusNotFound, models.BookingResponse{Message: "Trip not found"})
		return
	case req.SeatsBooked <= 0:
		writeJSON(w, http.StatusBadRequest, models.BookingResponse{Message: "Seat count must be positive"})
		return
	case req.SeatsBooked > trip.SeatsAvailable:
		writeJSON(w, http.StatusConflict, models.BookingResponse{Message: "Not enough seats available"})
		return
	case req.TotalAmount != models.TotalAmount(req.SeatsBooked, trip.PricePerSeat):
		writeJSON(w, http.StatusBadRequest, models.BookingResponse{Message: "Total amount does not match seat price"})
		return
	}

	trip.SeatsAvailable -= req.SeatsBooked
	rec := &bookingRecord{
		booking: models.Booking{
			ID:          uuid.NewString(),
			TripID:      trip.ID,
			SeatsBooked: req.SeatsBooked,
			TotalAmount: req.TotalAmount,
		},
		passengerID: passengerID(r),
	}
	s.bookings[rec.booking.ID] = rec
	s.bookingOrder = append(s.bookingOrder, rec.booking.ID)
	s.logger.Info("trip booked", "booking", rec.booking.ID, "trip", trip.ID, "seats", req.SeatsBooked)

	booking := rec.booking
	writeJSON(w, http.StatusCreated, models.BookingResponse{
		Success: true,
		Message: "Trip booked successfully",
		Booking: &booking,
	})
}

// BookedTrips lists the authenticated passenger's bookings with their trips.
func (s *Server) BookedTrips(w http.ResponseWriter, r *http.Request) {
	id := passengerID(r)

	s.mu.Lock()
	out := make([]models.BookedTrip, 0)
	for _, bid := range s.bookingOrder {
		rec := s.bookings[bid]
		if rec.passengerID != id {
			continue
		}
		out = append(out, models.BookedTrip{Trip: *s.trips[rec.booking.TripID], Booking: rec.booking})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// RateDriver records a 1-5 star rating once per booking.
func (s *Server) RateDriver(w http.ResponseWriter, r *http.Request) {
	var req models.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, status, msg := s.ownedBooking(req.BookingID, passengerID(r))
	if rec == nil {
		writeError(w, status, msg)
		return
	}
	if rec.booking.HasRated {
		writeError(w, http.StatusConflict, "Driver already rated for this booking")
		return
	}
	rec.booking.HasRated = true

	tripID := rec.booking.TripID
	s.ratings[tripID] = append(s.ratings[tripID], req.Rating)
	sum := 0
	for _, v := range s.ratings[tripID] {
		sum += v
	}
	s.trips[tripID].Rating = float64(sum) / float64(len(s.ratings[tripID]))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Rating submitted"})
}

// ReportDriver records a complaint once per booking.
func (s *Server) ReportDriver(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, status, msg := s.ownedBooking(req.BookingID, passengerID(r))
	if rec == nil {
		writeError(w, status, msg)
		return
	}
	if rec.booking.HasReported {
		writeError(w, http.StatusConflict, "Driver already reported for this booking")
		return
	}
	rec.booking.HasReported = true
	s.reports[rec.booking.ID] = req.Reason

	writeJSON(w, http.StatusOK, map[string]string{"message": "Report submitted"})
}

type chatRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type chatReply struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// ChatWebhook answers in the shape of a Rasa REST channel.
func (s *Server) ChatWebhook(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	msg := strings.ToLower(req.Message)
	var text string
	switch {
	case strings.TrimSpace(msg) == "":
		writeJSON(w, http.StatusOK, []chatReply{})
		return
	case strings.Contains(msg, "book"):
		text = "You can book a seat from the trip list. Pick a trip, enter the number of seats and confirm."
	case strings.Contains(msg, "rate") || strings.Contains(msg, "report"):
		text = "Open My Trips to rate or report the driver of a booked trip."
	case strings.Contains(msg, "hello") || strings.Contains(msg, "hi"):
		text = "Hi! I'm Thizzy. Ask me about booking trips."
	default:
		text = "Sorry, I didn't get that. Try asking about booking a trip."
	}
	writeJSON(w, http.StatusOK, []chatReply{{RecipientID: req.Sender, Text: text}})
}

func (s *Server) passengerByID(id string) *passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.passengers {
		if p.user.ID == id {
			return p
		}
	}
	return nil
}

// ownedBooking must be called with s.mu held.
func (s *Server) ownedBooking(bookingID, owner string) (*bookingRecord, int, string) {
	rec, ok := s.bookings[bookingID]
	if !ok {
		return nil, http.StatusNotFound, "Booking not found"
	}
	if rec.passengerID != owner {
		return nil, http.StatusForbidden, "Booking belongs to another passenger"
	}
	return rec, 0, ""
}
