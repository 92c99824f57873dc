package domain

import (
	"context"
	"time"

	"sharehub/internal/models"
)

// Repository is the storage contract the services run against.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UserExists(ctx context.Context, id int64) (bool, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetUserItems(ctx context.Context, ownerID int64) ([]*models.Item, error)
	GetItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingView(ctx context.Context, id int64) (*models.BookingView, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	ListBookerBookings(ctx context.Context, bookerID int64, state string, now time.Time, from, size int) ([]*models.BookingView, error)
	ListOwnerBookings(ctx context.Context, ownerID int64, state string, now time.Time, from, size int) ([]*models.BookingView, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
	LastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	NextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetItemComments(ctx context.Context, itemID int64) ([]models.CommentView, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetUserRequests(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts booking ledger tasks for asynchronous export.
type SyncWorker interface {
	EnqueueBooking(ctx context.Context, taskType string, booking *models.Booking) error
}

// SearchCache keeps search result pages close to the caller.
type SearchCache interface {
	Get(ctx context.Context, text string, from, size int) ([]*models.Item, bool)
	Set(ctx context.Context, text string, from, size int, items []*models.Item)
	Invalidate(ctx context.Context)
}
