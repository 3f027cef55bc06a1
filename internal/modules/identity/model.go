package identity

import "time"

// Role labels what a user may do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a customer or admin account.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	// Password is the stored credential; its format depends on the configured
	// verifier. Persisted through the gateway's JSON marshalling, so handlers
	// must blank it before responding.
	Password         string     `json:"password,omitempty"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Role             Role       `json:"role"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Actor identifies who is performing a domain operation. It is passed
// explicitly into every per-user service call; the zero value is the guest.
type Actor struct {
	UserID string
	Admin  bool
}

// Guest reports whether the actor is unauthenticated.
func (a Actor) Guest() bool { return a.UserID == "" }

// CartOwner is the owner tag used for cart lines: the user id, or "local"
// for the guest.
func (a Actor) CartOwner() string {
	if a.Guest() {
		return "local"
	}
	return a.UserID
}

// ActorFor builds the actor for a resolved user.
func ActorFor(u *User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Admin: u.Role == RoleAdmin}
}

// session is the principal persisted in the flat key space between calls.
type session struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Admin    bool      `json:"admin"`
	IssuedAt time.Time `json:"issuedAt"`
}
