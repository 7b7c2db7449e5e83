package enums

import "fmt"

// ActivityType classifies a user activity log entry.
type ActivityType string

const (
	ActivityLogin          ActivityType = "login"
	ActivityLogout         ActivityType = "logout"
	ActivityViewProduct    ActivityType = "view_product"
	ActivityAddToCart      ActivityType = "add_to_cart"
	ActivityRemoveFromCart ActivityType = "remove_from_cart"
	ActivityPlaceOrder     ActivityType = "place_order"
	ActivityViewOrder      ActivityType = "view_order"
	ActivityAddReview      ActivityType = "add_review"
	ActivityUpdateProfile  ActivityType = "update_profile"
)

var validActivityTypes = []ActivityType{
	ActivityLogin,
	ActivityLogout,
	ActivityViewProduct,
	ActivityAddToCart,
	ActivityRemoveFromCart,
	ActivityPlaceOrder,
	ActivityViewOrder,
	ActivityAddReview,
	ActivityUpdateProfile,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
