package models

import "time"

// ItemRequest is a wish posted by a user; immutable once created.
type ItemRequest struct {
	ID          int64     `json:"id"`
	RequestorID int64     `json:"requestorId"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// ItemRequestView is a request enriched with the items listed against it.
type ItemRequestView struct {
	ItemRequest
	Items []*Item `json:"items"`
}
