package eventcal

import "strings"

// UserID is used to identify Users. Right now it's a Firebase UID.
type UserID string

// Identity is the authenticated user bound to a session. It's created by the
// auth gateway and read-only everywhere else.
type Identity struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`

	// Token is the hosted-auth ID token for this identity and RefreshToken the
	// token used to renew it. Neither is ever sent to API clients.
	Token        string `json:"-"`
	RefreshToken string `json:"-"`
}

// Profile is the user profile record kept next to the hosted account. It's
// written at signup and whenever the user saves their settings.
type Profile struct {
	UserID   UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// A ProfileUpdate is used to update a user's Profile and account from the
// settings page.
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	// Password changes the account password. It must equal ConfirmPassword.
	// Passwords are handed to the auth provider and never stored here.
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	// Mask is a comma-delimited list of json names for the fields this update
	// will change. Only fields listed in the mask will be updated.
	//
	// eg: "username,email" means this update changes Username and Email
	//
	// This is similar to protobuf's FieldMask well known type.
	Mask string `json:"mask"`
}

// Has reports whether field is listed in the update's mask.
func (u ProfileUpdate) Has(field string) bool {
	for _, f := range strings.Split(u.Mask, ",") {
		if strings.TrimSpace(f) == field {
			return true
		}
	}
	return false
}
