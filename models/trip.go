package models

import (
	"encoding/json"
	"strings"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type TripStatus string

const (
	TripStatusAvailable  TripStatus = "Available"
	TripStatusInProgress TripStatus = "In Progress"
	TripStatusCompleted  TripStatus = "Completed"
	TripStatusCancelled  TripStatus = "Cancelled"
)

type Trip struct {
	ID             string     `json:"id"`
	StartLocation  Location   `json:"startLocation"`
	Destination    Location   `json:"destination"`
	Date           string     `json:"date"`
	SeatsAvailable int        `json:"seatsAvailable"`
	PricePerSeat   float64    `json:"pricePerSeat"`
	Description    string     `json:"description"`
	DriverName     string     `json:"driverName"`
	Vehicle        string     `json:"vehicle"`
	Rating         float64    `json:"rating"`
	Status         TripStatus `json:"status,omitempty"`
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (t *Trip) UnmarshalJSON(b []byte) error {
	type plain Trip
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = Trip(aux.plain)
	if aux.MongoID != "" {
		t.ID = aux.MongoID
	}
	return nil
}

// Title renders "<district> → <district>" for list output.
func (t Trip) Title() string {
	return ExtractDistrict(t.StartLocation.Address) + " → " + ExtractDistrict(t.Destination.Address)
}

// ExtractDistrict returns the second-to-last comma separated part of an
// address, or the first part if there is only one.
func ExtractDistrict(address string) string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 && parts[len(parts)-2] != "" {
		return parts[len(parts)-2]
	}
	return parts[0]
}
