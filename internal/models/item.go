package models

import "time"

type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	RequestID   int64     `json:"requestId,omitempty"` // 0 when the item was not created against a request
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ItemPatch carries a partial update; nil fields are left untouched.
// The owner and the originating request are immutable.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// ItemView is an item enriched for read endpoints: its comments and, for the
// owner, the closest approved bookings around now.
type ItemView struct {
	Item
	Comments    []CommentView `json:"comments"`
	LastBooking *Booking      `json:"lastBooking,omitempty"`
	NextBooking *Booking      `json:"nextBooking,omitempty"`
}
