package models

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	BookerID  int64     `json:"bookerId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"` // WAITING, APPROVED, REJECTED
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Overlaps reports whether two windows intersect, boundaries included.
func (b Booking) Overlaps(start, end time.Time) bool {
	return !b.Start.After(end) && !b.End.Before(start)
}

// BookingView embeds the item and booker summaries the way list and detail
// endpoints return them. OwnerID is carried for authorization checks and
// never serialized.
type BookingView struct {
	Booking
	Item    ItemSummary `json:"item"`
	Booker  UserSummary `json:"booker"`
	OwnerID int64       `json:"-"`
}

type ItemSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
