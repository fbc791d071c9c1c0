package models

import "encoding/json"

// User is the passenger profile returned by /api/passenger/profile and
// mirrored to local storage under the "user" key.
type User struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// UnmarshalJSON accepts "id" from backends that do not send "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.PlainID
	}
	return nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PhoneNumber     string `json:"phoneNumber"`
	Username        string `json:"username"`
	ConfirmPassword string `json:"-"`
}
