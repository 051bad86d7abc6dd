package device

import "time"

// Device is the authenticated unit of ownership. The identifier is
// generated by the device itself on first install and registered here.
type Device struct {
	ID        string    `json:"id"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}

// Token is an issued bearer credential.
type Token struct {
	AccessToken string
	ExpiresIn   int
}
