package models

// User is the authenticated account a session belongs to. Reports created
// through the coordinator default their owner fields from this record.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// AuthResponse is the remote service's login result
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
