package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"sharehub/internal/database"
	"sharehub/internal/domain"
	"sharehub/internal/events"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	exporter domain.SyncWorker
	logger   *zerolog.Logger

	mu        sync.Mutex
	itemLocks map[int64]*sync.Mutex
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, exporter domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:      repo,
		eventBus:  eventBus,
		exporter:  exporter,
		logger:    logger,
		itemLocks: make(map[int64]*sync.Mutex),
	}
}

// CreateBooking validates the request in a fixed order, then inserts the
// booking in WAITING status. Creation is serialized per item so two callers
// cannot both pass the overlap check before either commits.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingView, error) {
	booker, err := s.repo.GetUser(ctx, bookerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("user %d not found", bookerID)
		}
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, err
	}
	if !item.Available {
		return nil, BadRequestf("item %d is not available", itemID)
	}
	if item.OwnerID == bookerID {
		// Owners do not book their own items; surfaced as NotFound.
		return nil, NotFoundf("item %d not found", itemID)
	}
	if !start.Before(end) {
		return nil, BadRequestf("booking start must be before end")
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start.UTC(),
		End:      end.UTC(),
		Status:   models.StatusWaiting,
	}

	lock := s.itemLock(itemID)
	lock.Lock()
	err = s.repo.CreateBooking(ctx, booking)
	lock.Unlock()
	if err != nil {
		if errors.Is(err, database.ErrOverlap) {
			return nil, BadRequestf("item %d already booked for these dates", itemID)
		}
		return nil, err
	}

	view := &models.BookingView{
		Booking: *booking,
		Item:    models.ItemSummary{ID: item.ID, Name: item.Name},
		Booker:  models.UserSummary{ID: booker.ID, Name: booker.Name},
		OwnerID: item.OwnerID,
	}

	s.publishEvent(events.EventBookingCreated, view)
	s.enqueueExport(ctx, "upsert", booking)

	return view, nil
}

// ApproveBooking resolves a WAITING booking to APPROVED or REJECTED.
// Only the item owner may act, and only once.
func (s *BookingService) ApproveBooking(ctx context.Context, actingUserID, bookingID int64, approve bool) (*models.BookingView, error) {
	view, err := s.getView(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if view.OwnerID != actingUserID {
		return nil, Forbiddenf("user %d is not the owner of item %d", actingUserID, view.ItemID)
	}
	if view.Status != models.StatusWaiting {
		return nil, Forbiddenf("booking %d is already resolved", bookingID)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approve {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	view.Status = status

	s.publishEvent(eventType, view)
	s.enqueueExport(ctx, "update_status", &view.Booking)

	return view, nil
}

// GetBooking is visible only to the booker and the item owner; everyone else
// gets NotFound so the booking's existence is not leaked.
func (s *BookingService) GetBooking(ctx context.Context, actingUserID, bookingID int64) (*models.BookingView, error) {
	view, err := s.getView(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actingUserID != view.BookerID && actingUserID != view.OwnerID {
		return nil, NotFoundf("booking %d not found", bookingID)
	}
	return view, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.BookingView, error) {
	if err := s.requireUser(ctx, bookerID); err != nil {
		return nil, err
	}
	return s.repo.ListBookerBookings(ctx, bookerID, models.NormalizeState(state), time.Now().UTC(), from, size)
}

func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.BookingView, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListOwnerBookings(ctx, ownerID, models.NormalizeState(state), time.Now().UTC(), from, size)
}

func (s *BookingService) getView(ctx context.Context, bookingID int64) (*models.BookingView, error) {
	view, err := s.repo.GetBookingView(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("booking %d not found", bookingID)
		}
		return nil, err
	}
	return view, nil
}

func (s *BookingService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return NotFoundf("user %d not found", userID)
	}
	return nil
}

func (s *BookingService) itemLock(itemID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.itemLocks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.itemLocks[itemID] = lock
	}
	return lock
}

func (s *BookingService) publishEvent(eventType string, view *models.BookingView) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  view.ID,
		ItemID:     view.Item.ID,
		ItemName:   view.Item.Name,
		BookerID:   view.Booker.ID,
		BookerName: view.Booker.Name,
		OwnerID:    view.OwnerID,
		Status:     view.Status,
		Start:      view.Start,
		End:        view.End,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", view.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueExport(ctx context.Context, taskType string, booking *models.Booking) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.EnqueueBooking(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("export enqueue error")
	}
}
