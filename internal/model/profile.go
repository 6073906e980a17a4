package model

import "time"

// Profile is the user profile document auto-provisioned on account creation.
// Fields after PhotoURL start null/empty and are mutated by client flows this
// service does not own; the document is never deleted here.
type Profile struct {
	UID                 string     `json:"uid"`
	FullName            string     `json:"fullName"`
	Email               string     `json:"email"`
	PhotoURL            string     `json:"photoUrl"`
	Country             *string    `json:"country"`
	TravelStyle         *string    `json:"travelStyle"`
	DreamTrip           *string    `json:"dreamTrip"`
	PreferredActivities []string   `json:"preferredActivities"`
	MemberSince         *time.Time `json:"memberSince,omitempty"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
	StripeCustomerID    string     `json:"stripeCustomerId,omitempty"`
}
