package models

// Account roles.
const (
	RoleUser     = "User"
	RoleBusiness = "Business"
)

// Business types a Business account may register as.
const (
	BusinessHotel = "Hotel"
	BusinessGuide = "Guide"
	BusinessCab   = "Cab"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleBusiness
}

// ValidBusinessType reports whether bt is a registrable business type.
func ValidBusinessType(bt string) bool {
	switch bt {
	case BusinessHotel, BusinessGuide, BusinessCab:
		return true
	}
	return false
}
