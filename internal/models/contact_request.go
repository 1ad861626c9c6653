package models

import "time"

// RequestStatus is the closed state set of a contact request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestDeclined RequestStatus = "DECLINED"
)

// ValidDecision reports whether the status is one a recipient may set when
// handling a request. The match is case-sensitive.
func (s RequestStatus) ValidDecision() bool {
	return s == RequestAccepted || s == RequestDeclined
}

// ContactRequest ties a sender (allievo) to a listing author (tutor) for one
// listing. Sender and recipient are always distinct users.
type ContactRequest struct {
	ID          int64         `db:"id" json:"id"`
	Message     string        `db:"message" json:"message,omitempty"`
	Reply       *string       `db:"reply" json:"reply,omitempty"`
	Status      RequestStatus `db:"status" json:"status"`
	SenderID    string        `db:"sender_id" json:"sender_id"`
	RecipientID string        `db:"recipient_id" json:"recipient_id"`
	ListingID   int64         `db:"listing_id" json:"listing_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// ContactRequestDetail enriches a request with counterpart and listing info
// for the inbox/outbox views.
type ContactRequestDetail struct {
	ContactRequest
	SenderEmail    string `db:"sender_email" json:"sender_email"`
	SenderName     string `db:"sender_name" json:"sender_name"`
	RecipientEmail string `db:"recipient_email" json:"recipient_email"`
	RecipientName  string `db:"recipient_name" json:"recipient_name"`
	ListingTitle   string `db:"listing_title" json:"listing_title"`
}
