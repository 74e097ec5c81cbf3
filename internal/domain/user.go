package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of account roles. Gates switch over it
// exhaustively; adding a role means revisiting every switch.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// VendorStatus is the vendor lifecycle state. It is present on a user
// if and only if the role is vendor.
type VendorStatus string

const (
	VendorPending   VendorStatus = "pending"
	VendorActive    VendorStatus = "active"
	VendorSuspended VendorStatus = "suspended"
	VendorRejected  VendorStatus = "rejected"
)

func (s VendorStatus) Valid() bool {
	switch s {
	case VendorPending, VendorActive, VendorSuspended, VendorRejected:
		return true
	}
	return false
}

// User is the persisted identity record. PasswordHash is empty for
// accounts created through Google; GoogleID is empty for local accounts;
// never both. RecoveryCodeHash and RecoveryExpiresAt are set and cleared
// together.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"       json:"id"`
	Name             string             `bson:"name"                json:"name"`
	Email            string             `bson:"email"               json:"email"`
	PasswordHash     string             `bson:"password_hash,omitempty" json:"-"`
	Role             Role               `bson:"role"                json:"role"`
	VendorStatus     VendorStatus       `bson:"vendor_status,omitempty" json:"vendor_status,omitempty"`
	BusinessName     string             `bson:"business_name,omitempty" json:"business_name,omitempty"`
	BusinessAddress  string             `bson:"business_address,omitempty" json:"-"`
	BusinessPhone    string             `bson:"business_phone,omitempty" json:"-"`
	GoogleID         string             `bson:"google_id,omitempty" json:"-"`
	RecoveryCodeHash string             `bson:"recovery_code_hash,omitempty" json:"-"`
	RecoveryExpires  time.Time          `bson:"recovery_expires_at,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at"          json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"          json:"updated_at"`
}

// PublicUser is the wire view of a user: no secrets, vendor fields only
// when the account is a vendor.
type PublicUser struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	VendorStatus VendorStatus `json:"vendor_status,omitempty"`
	BusinessName string       `json:"business_name,omitempty"`
}

func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.Role == RoleVendor {
		p.VendorStatus = u.VendorStatus
		p.BusinessName = u.BusinessName
	}
	return p
}

// HasRecovery reports whether an active recovery challenge is stored.
func (u *User) HasRecovery() bool {
	return u.RecoveryCodeHash != "" && !u.RecoveryExpires.IsZero()
}
