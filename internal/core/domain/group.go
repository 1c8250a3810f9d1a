package domain

import "time"

// Group is the tenant root: projects, users and activity hang off a group.
type Group struct {
	ID          int64     `json:"id"`
	GUID        string    `json:"guid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// GroupContact is a named group-level counterparty. Customs agents and
// shipping services share this shape; they differ only in which table
// and routes they live under.
type GroupContact struct {
	ID        int64     `json:"id"`
	GUID      string    `json:"guid"`
	GroupID   int64     `json:"groupId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupAddress is a pickup or delivery location registered on a group.
type GroupAddress struct {
	ID           int64     `json:"id"`
	GUID         string    `json:"guid"`
	GroupID      int64     `json:"groupId"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	Country      string    `json:"country"`
	ContactName  string    `json:"contactName"`
	ContactPhone string    `json:"contactPhone"`
	ContactEmail string    `json:"contactEmail"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type User struct {
	ID        int64     `json:"id"`
	GUID      string    `json:"guid"`
	GroupID   int64     `json:"groupId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
