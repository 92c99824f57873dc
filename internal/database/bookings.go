package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sharehub/internal/models"
)

const bookingJoin = `
        SELECT b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status,
               b.created_at, b.updated_at, i.name, i.owner_id, u.name
        FROM bookings b
        JOIN items i ON i.id = b.item_id
        JOIN users u ON u.id = b.booker_id`

func scanBookingView(scanner interface{ Scan(...any) error }) (*models.BookingView, error) {
	var row models.BookingView
	err := scanner.Scan(
		&row.ID, &row.Booking.ItemID, &row.Booking.BookerID,
		&row.Start, &row.End, &row.Status,
		&row.CreatedAt, &row.UpdatedAt,
		&row.Item.Name, &row.OwnerID, &row.Booker.Name,
	)
	if err != nil {
		return nil, err
	}
	row.Item.ID = row.Booking.ItemID
	row.Booker.ID = row.Booking.BookerID
	return &row, nil
}

// CreateBooking checks the overlap rule and inserts the booking inside a
// single transaction: an approved booking whose window intersects [start,end]
// (boundaries included) blocks the insert.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE item_id = ? AND status = ? AND start_at <= ? AND end_at >= ?`
	var overlapping int
	err = tx.QueryRowContext(ctx, queryCount,
		booking.ItemID, models.StatusApproved, booking.End.UTC(), booking.Start.UTC(),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrOverlap
	}

	queryInsert := `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status, created_at, updated_at)
                    VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.ItemID, booking.BookerID, booking.Start.UTC(), booking.End.UTC(),
		booking.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return tx.Commit()
}

func (db *DB) GetBookingView(ctx context.Context, id int64) (*models.BookingView, error) {
	row, err := scanBookingView(db.QueryRowContext(ctx, bookingJoin+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return row, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListBookerBookings returns the booker's bookings filtered by state,
// newest start first. State must already be normalized; anything
// unrecognized falls through to ALL.
func (db *DB) ListBookerBookings(ctx context.Context, bookerID int64, state string, now time.Time, from, size int) ([]*models.BookingView, error) {
	return db.listBookings(ctx, `b.booker_id = ?`, bookerID, state, now, from, size)
}

// ListOwnerBookings returns bookings on the owner's items filtered by state,
// newest start first.
func (db *DB) ListOwnerBookings(ctx context.Context, ownerID int64, state string, now time.Time, from, size int) ([]*models.BookingView, error) {
	return db.listBookings(ctx, `i.owner_id = ?`, ownerID, state, now, from, size)
}

func (db *DB) listBookings(ctx context.Context, subject string, subjectID int64, state string, now time.Time, from, size int) ([]*models.BookingView, error) {
	where := subject
	args := []any{subjectID}
	nowUTC := now.UTC()

	switch state {
	case models.StateCurrent:
		where += ` AND b.start_at <= ? AND b.end_at >= ?`
		args = append(args, nowUTC, nowUTC)
	case models.StatePast:
		where += ` AND b.end_at < ?`
		args = append(args, nowUTC)
	case models.StateFuture:
		where += ` AND b.start_at > ?`
		args = append(args, nowUTC)
	case models.StateWaiting, models.StateRejected:
		where += ` AND b.status = ?`
		args = append(args, state)
	default:
		// ALL and anything unrecognized
	}

	query := bookingJoin + ` WHERE ` + where + ` ORDER BY b.start_at DESC LIMIT ? OFFSET ?`
	args = append(args, size, pageOffset(from, size))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.BookingView
	for rows.Next() {
		row, err := scanBookingView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, row)
	}
	return bookings, rows.Err()
}

// HasFinishedBooking reports whether the booker has an approved booking on
// the item that ended before now. This gates comment creation.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE booker_id = ? AND item_id = ? AND status = ? AND end_at < ?`
	var count int
	err := db.QueryRowContext(ctx, query, bookerID, itemID, models.StatusApproved, now.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}

// LastApprovedBooking returns the latest approved booking started at or
// before now, or nil when there is none.
func (db *DB) LastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT id, item_id, booker_id, start_at, end_at, status, created_at, updated_at
              FROM bookings WHERE item_id = ? AND status = ? AND start_at <= ?
              ORDER BY start_at DESC LIMIT 1`
	return db.queryOneBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

// NextApprovedBooking returns the earliest approved booking starting after
// now, or nil when there is none.
func (db *DB) NextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT id, item_id, booker_id, start_at, end_at, status, created_at, updated_at
              FROM bookings WHERE item_id = ? AND status = ? AND start_at > ?
              ORDER BY start_at ASC LIMIT 1`
	return db.queryOneBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

func (db *DB) queryOneBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	var b models.Booking
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	return &b, nil
}
