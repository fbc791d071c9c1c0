package api

import (
	"context"
	"net/http"

	"passenger-client/models"
)

func (c *Client) ListTrips(ctx context.Context, token string) ([]models.Trip, error) {
	var trips []models.Trip
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/trips", Token: token, Auth: true}, &trips)
	return trips, err
}

// BookTrip submits a booking. A 2xx response whose success flag is false is
// reported as a KindBusiness error alongside the decoded response.
func (c *Client) BookTrip(ctx context.Context, token string, req models.BookingRequest) (models.BookingResponse, error) {
	var resp models.BookingResponse
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/book-trip", Token: token, Auth: true, Body: req}, &resp)
	if err != nil {
		return resp, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "booking was not accepted"
		}
		return resp, &Error{Kind: KindBusiness, Status: http.StatusOK, Message: msg}
	}
	return resp, nil
}

// ListBookings reads the passenger's bookings from /api/booked-trips, falling
// back to /api/bookings/mine on backends that only expose the latter.
func (c *Client) ListBookings(ctx context.Context, token string) ([]models.BookedTrip, error) {
	var booked []models.BookedTrip
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/booked-trips", Token: token, Auth: true}, &booked)
	if IsStatus(err, http.StatusNotFound) {
		booked = nil
		err = c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/bookings/mine", Token: token, Auth: true}, &booked)
	}
	return booked, err
}

func (c *Client) RateDriver(ctx context.Context, token string, req models.RatingRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/rate-driver", Token: token, Auth: true, Body: req}, nil)
}

func (c *Client) ReportDriver(ctx context.Context, token string, req models.ReportRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/report-driver", Token: token, Auth: true, Body: req}, nil)
}
