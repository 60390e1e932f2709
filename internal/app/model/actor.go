package model

// Role is the caller's role as asserted by the identity token.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleShop  Role = "shop"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleShop, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who invokes an operation. ShopID is set for shop accounts only.
type Actor struct {
	Subject string
	Role    Role
	ShopID  string
}

// CanActFor reports whether the actor may operate on an assignment owned by shopID.
// Buyers and admins may act on any shop's assignment.
func (a Actor) CanActFor(shopID string) bool {
	if a.Role == RoleShop {
		return a.ShopID != "" && a.ShopID == shopID
	}
	return a.Role == RoleBuyer || a.Role == RoleAdmin
}
