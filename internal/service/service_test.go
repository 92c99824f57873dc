package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sharehub/internal/database"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
	return nil
}

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

// recordingExporter captures enqueued ledger tasks.
type recordingExporter struct {
	mu    sync.Mutex
	tasks []string
}

func (e *recordingExporter) EnqueueBooking(ctx context.Context, taskType string, booking *models.Booking) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, taskType)
	return nil
}

type testEnv struct {
	db       *database.DB
	users    *UserService
	items    *ItemService
	bookings *BookingService
	requests *RequestService
	bus      *recordingBus
	exporter *recordingExporter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := &recordingBus{}
	exporter := &recordingExporter{}

	return &testEnv{
		db:       db,
		users:    NewUserService(db, &logger),
		items:    NewItemService(db, nil, bus, &logger),
		bookings: NewBookingService(db, bus, exporter, &logger),
		requests: NewRequestService(db, &logger),
		bus:      bus,
		exporter: exporter,
	}
}

func (e *testEnv) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), &models.User{Name: name, Email: email})
	require.NoError(t, err)
	return user
}

func (e *testEnv) item(t *testing.T, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item, err := e.items.CreateItem(context.Background(), ownerID, &models.Item{
		Name:        name,
		Description: name + " description",
		Available:   available,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) approvedPastBooking(t *testing.T, bookerID, itemID int64, ownerID int64) *models.BookingView {
	t.Helper()
	now := time.Now().UTC()
	view, err := e.bookings.CreateBooking(context.Background(), bookerID, itemID,
		now.AddDate(0, 0, -2), now.AddDate(0, 0, -1))
	require.NoError(t, err)
	_, err = e.bookings.ApproveBooking(context.Background(), ownerID, view.ID, true)
	require.NoError(t, err)
	return view
}
