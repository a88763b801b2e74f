package domain

import (
	"strings"
	"time"
)

type Role int

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleSeller
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleSeller:
		return "seller"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseRole maps a stored role name onto Role. Anything unrecognised,
// including the empty string, is RoleUnknown.
func ParseRole(name string) Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "customer":
		return RoleCustomer
	case "seller":
		return RoleSeller
	case "admin":
		return RoleAdmin
	}
	return RoleUnknown
}

// DecodeRole is the one place loosely typed role data is interpreted: a bare
// name, a role record, or a joined object such as {"name": "seller"} decoded
// from JSON claims.
func DecodeRole(v any) Role {
	switch r := v.(type) {
	case Role:
		return r
	case string:
		return ParseRole(r)
	case *string:
		if r == nil {
			return RoleUnknown
		}
		return ParseRole(*r)
	case RoleRecord:
		return ParseRole(r.Name)
	case *RoleRecord:
		if r == nil {
			return RoleUnknown
		}
		return ParseRole(r.Name)
	case map[string]any:
		if name, ok := r["name"].(string); ok {
			return ParseRole(name)
		}
	case map[string]string:
		return ParseRole(r["name"])
	}
	return RoleUnknown
}

type RoleRecord struct {
	ID          string
	Name        string
	Description string
}

type Capabilities struct {
	IsAdmin             bool `json:"isAdmin"`
	IsCustomer          bool `json:"isCustomer"`
	IsSeller            bool `json:"isSeller"`
	CanPurchaseProducts bool `json:"canPurchaseProducts"`
	CanSellProducts     bool `json:"canSellProducts"`
	CanManageProducts   bool `json:"canManageProducts"`
	CanManageOrders     bool `json:"canManageOrders"`
	CanViewAnalytics    bool `json:"canViewAnalytics"`
	CanAccessAdminPanel bool `json:"canAccessAdminPanel"`
}

func CapabilitiesFor(r Role) Capabilities {
	switch r {
	case RoleAdmin:
		return Capabilities{
			IsAdmin:             true,
			IsCustomer:          true,
			IsSeller:            true,
			CanPurchaseProducts: true,
			CanSellProducts:     true,
			CanManageProducts:   true,
			CanManageOrders:     true,
			CanViewAnalytics:    true,
			CanAccessAdminPanel: true,
		}
	case RoleCustomer:
		return Capabilities{
			IsCustomer:          true,
			CanPurchaseProducts: true,
		}
	case RoleSeller:
		return Capabilities{
			IsSeller:          true,
			CanSellProducts:   true,
			CanManageProducts: true,
			CanManageOrders:   true,
			CanViewAnalytics:  true,
		}
	}
	return Capabilities{}
}

type Profile struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
	Website   string
	RoleID    *string
	UpdatedAt time.Time
}

// Actor is the authenticated caller as seen by the core.
type Actor struct {
	ProfileID string
	Username  string
	Role      Role
}

// Onboarded reports whether the actor has a username and a recognised role.
func (a Actor) Onboarded() bool {
	return a.ProfileID != "" && strings.TrimSpace(a.Username) != "" && a.Role != RoleUnknown
}

func (a Actor) Capabilities() Capabilities {
	if !a.Onboarded() {
		return Capabilities{}
	}
	return CapabilitiesFor(a.Role)
}
