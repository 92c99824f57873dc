package database

import (
	"context"
	"testing"
	"time"

	"sharehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T, db *DB, itemID, bookerID int64, start, end time.Time, status string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	require.NoError(t, db.CreateBooking(context.Background(), booking))
	if status != models.StatusWaiting {
		require.NoError(t, db.UpdateBookingStatus(context.Background(), booking.ID, status))
		booking.Status = status
	}
	return booking
}

func TestCreateBooking_OverlapAgainstApproved(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	other := createTestUser(t, db, "Carol", "carol@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 1), now.AddDate(0, 0, 3), models.StatusApproved)

	// Intersecting window against an approved booking is rejected.
	overlap := &models.Booking{
		ItemID:   item.ID,
		BookerID: other.ID,
		Start:    now.AddDate(0, 0, 2),
		End:      now.AddDate(0, 0, 4),
		Status:   models.StatusWaiting,
	}
	err := db.CreateBooking(ctx, overlap)
	assert.ErrorIs(t, err, ErrOverlap)

	// Boundary touch counts as overlap too.
	touching := &models.Booking{
		ItemID:   item.ID,
		BookerID: other.ID,
		Start:    now.AddDate(0, 0, 3),
		End:      now.AddDate(0, 0, 5),
		Status:   models.StatusWaiting,
	}
	err = db.CreateBooking(ctx, touching)
	assert.ErrorIs(t, err, ErrOverlap)

	// Disjoint window is fine.
	disjoint := &models.Booking{
		ItemID:   item.ID,
		BookerID: other.ID,
		Start:    now.AddDate(0, 0, 4),
		End:      now.AddDate(0, 0, 5),
		Status:   models.StatusWaiting,
	}
	require.NoError(t, db.CreateBooking(ctx, disjoint))
	assert.NotZero(t, disjoint.ID)
}

func TestCreateBooking_WaitingDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	other := createTestUser(t, db, "Carol", "carol@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 1), now.AddDate(0, 0, 3), models.StatusWaiting)

	second := &models.Booking{
		ItemID:   item.ID,
		BookerID: other.ID,
		Start:    now.AddDate(0, 0, 2),
		End:      now.AddDate(0, 0, 4),
		Status:   models.StatusWaiting,
	}
	assert.NoError(t, db.CreateBooking(ctx, second))
}

func TestGetBookingView(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	booking := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 1), now.AddDate(0, 0, 2), models.StatusWaiting)

	view, err := db.GetBookingView(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, view.ID)
	assert.Equal(t, "Дрель", view.Item.Name)
	assert.Equal(t, item.ID, view.Item.ID)
	assert.Equal(t, "Bob", view.Booker.Name)
	assert.Equal(t, owner.ID, view.OwnerID)
	assert.Equal(t, models.StatusWaiting, view.Status)

	_, err = db.GetBookingView(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	booking := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 1), now.AddDate(0, 0, 2), models.StatusWaiting)

	require.NoError(t, db.UpdateBookingStatus(ctx, booking.ID, models.StatusApproved))

	view, err := db.GetBookingView(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, view.Status)

	err = db.UpdateBookingStatus(ctx, 9999, models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "booking 9999")
}

func TestListBookings_StateFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	past := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, -5), now.AddDate(0, 0, -3), models.StatusApproved)
	current := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), models.StatusApproved)
	future := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 3), now.AddDate(0, 0, 5), models.StatusWaiting)
	rejected := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 7), now.AddDate(0, 0, 9), models.StatusRejected)

	cases := []struct {
		state string
		want  []int64
	}{
		// Ordered by start descending within each filter.
		{models.StateAll, []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{models.StateCurrent, []int64{current.ID}},
		{models.StatePast, []int64{past.ID}},
		{models.StateFuture, []int64{rejected.ID, future.ID}},
		{models.StateWaiting, []int64{future.ID}},
		{models.StateRejected, []int64{rejected.ID}},
	}

	for _, tc := range cases {
		t.Run(tc.state, func(t *testing.T) {
			views, err := db.ListBookerBookings(ctx, renter.ID, tc.state, now, 0, 10)
			require.NoError(t, err)
			got := make([]int64, 0, len(views))
			for _, v := range views {
				got = append(got, v.ID)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	// Owner sees the same bookings through the owner subject.
	views, err := db.ListOwnerBookings(ctx, owner.ID, models.StateAll, now, 0, 10)
	require.NoError(t, err)
	assert.Len(t, views, 4)

	// A stranger sees nothing.
	views, err = db.ListOwnerBookings(ctx, renter.ID, models.StateAll, now, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListBookings_PaginationSnapsToPage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()
	var ids []int64
	for day := 1; day <= 5; day++ {
		b := createTestBooking(t, db, item.ID, renter.ID,
			now.AddDate(0, 0, day*10), now.AddDate(0, 0, day*10+1), models.StatusWaiting)
		ids = append(ids, b.ID)
	}

	// from=3 size=2 snaps to page 1 (offset 2): third and second newest.
	views, err := db.ListBookerBookings(ctx, renter.ID, models.StateAll, now, 3, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, ids[2], views[0].ID)
	assert.Equal(t, ids[1], views[1].ID)
}

func TestHasFinishedBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()

	ok, err := db.HasFinishedBooking(ctx, renter.ID, item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// Approved and finished qualifies.
	createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, -2), now.AddDate(0, 0, -1), models.StatusApproved)
	ok, err = db.HasFinishedBooking(ctx, renter.ID, item.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// The owner never rented the item.
	ok, err = db.HasFinishedBooking(ctx, owner.ID, item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastAndNextApprovedBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Alice", "alice@example.com")
	renter := createTestUser(t, db, "Bob", "bob@example.com")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	now := time.Now().UTC()

	last, err := db.LastApprovedBooking(ctx, item.ID, now)
	require.NoError(t, err)
	assert.Nil(t, last)

	pastBooking := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, -3), now.AddDate(0, 0, -2), models.StatusApproved)
	futureBooking := createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 2), now.AddDate(0, 0, 3), models.StatusApproved)
	// Waiting bookings are invisible to the neighbor queries.
	createTestBooking(t, db, item.ID, renter.ID, now.AddDate(0, 0, 5), now.AddDate(0, 0, 6), models.StatusWaiting)

	last, err = db.LastApprovedBooking(ctx, item.ID, now)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, pastBooking.ID, last.ID)

	next, err := db.NextApprovedBooking(ctx, item.ID, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, futureBooking.ID, next.ID)
}
