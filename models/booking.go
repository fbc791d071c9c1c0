package models

import "encoding/json"

type Booking struct {
	ID          string  `json:"id"`
	TripID      string  `json:"tripId"`
	SeatsBooked int     `json:"seatsBooked"`
	TotalAmount float64 `json:"totalAmount"`
	HasRated    bool    `json:"hasRated"`
	HasReported bool    `json:"hasReported"`
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = Booking(aux.plain)
	if aux.MongoID != "" {
		b.ID = aux.MongoID
	}
	return nil
}

// BookingRequest is the body of POST /api/book-trip.
type BookingRequest struct {
	TripID      string  `json:"tripId"`
	SeatsBooked int     `json:"seatsBooked"`
	TotalAmount float64 `json:"totalAmount"`
}

// BookingResponse is the server's verdict on a BookingRequest. Booking is
// optional; older backends only send success and message.
type BookingResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Booking *Booking `json:"booking,omitempty"`
}

// BookedTrip pairs a booking with the trip it reserves, as listed by
// /api/booked-trips.
type BookedTrip struct {
	Trip    Trip    `json:"trip"`
	Booking Booking `json:"booking"`
}

type RatingRequest struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
}

type ReportRequest struct {
	BookingID string `json:"bookingId"`
	Reason    string `json:"reason"`
}

// TotalAmount is seats × price with no rounding.
func TotalAmount(seats int, pricePerSeat float64) float64 {
	return float64(seats) * pricePerSeat
}

// RatingFeedback returns the label shown next to a star selection.
func RatingFeedback(stars int) string {
	switch stars {
	case 1:
		return "Very Bad"
	case 2:
		return "Bad"
	case 3:
		return "Average"
	case 4:
		return "Good"
	case 5:
		return "Excellent"
	default:
		return "Rate the driver"
	}
}
