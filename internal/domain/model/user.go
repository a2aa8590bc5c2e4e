package model

// User is the account data the API returns after login and on profile reads.
// Optional fields are empty when the API omits them.
type User struct {
	ID              int    `json:"id"`
	Email           string `json:"email"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	IsMFAEnabled    bool   `json:"isMfaEnabled"`
	IsActive        *bool  `json:"isActive,omitempty"`
	LastLoginAt     string `json:"lastLoginAt,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged by the API.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// Empty returns true when no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil
}
