package identity

import "time"

// Identity is a registered user profile.
type Identity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile carries the user-supplied fields of a registration.
type Profile struct {
	Name        string
	Email       string
	Country     string
	CountryCode string
	Phone       string
}

// Record is a catalog entry: the identity plus its bcrypt secret hash.
type Record struct {
	Identity Identity `json:"identity"`
	Secret   string   `json:"secret"`
}
