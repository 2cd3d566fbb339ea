package model

// User is fabricated by the sign-in flow and lives in the browser profile's auth slot.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}
