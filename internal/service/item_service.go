package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sharehub/internal/database"
	"sharehub/internal/domain"
	"sharehub/internal/events"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	cache    domain.SearchCache
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, cache domain.SearchCache, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, cache: cache, eventBus: eventBus, logger: logger}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFoundf("user %d not found", ownerID)
	}

	if item.RequestID != 0 {
		if _, err := s.repo.GetRequest(ctx, item.RequestID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, NotFoundf("request %d not found", item.RequestID)
			}
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateSearch(ctx)
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies the non-nil patch fields. Only the owner may update;
// anyone else gets NotFound so item ownership is not leaked.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch *models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, NotFoundf("item %d not found", itemID)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateSearch(ctx)
	return item, nil
}

// GetItem returns the item with its comments. The owner additionally sees the
// most recent past approved booking and the nearest future one.
func (s *ItemService) GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, err
	}

	view := &models.ItemView{Item: *item}
	view.Comments, err = s.repo.GetItemComments(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if viewerID == item.OwnerID {
		if err := s.attachNeighborBookings(ctx, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *ItemService) GetUserItems(ctx context.Context, ownerID int64) ([]*models.ItemView, error) {
	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFoundf("user %d not found", ownerID)
	}

	items, err := s.repo.GetUserItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ItemView, 0, len(items))
	for _, item := range items {
		view := &models.ItemView{Item: *item}
		view.Comments, err = s.repo.GetItemComments(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if err := s.attachNeighborBookings(ctx, view); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SearchItems short-circuits on blank text instead of matching everything.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}

	if s.cache != nil {
		if items, ok := s.cache.Get(ctx, text, from, size); ok {
			return items, nil
		}
	}

	items, err := s.repo.SearchItems(ctx, text, from, size)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, text, from, size, items)
	}
	return items, nil
}

// AddComment requires the author to have finished an approved booking on the
// item; anything less is rejected.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error) {
	author, err := s.repo.GetUser(ctx, authorID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("user %d not found", authorID)
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

	ok, err := s.repo.HasFinishedBooking(ctx, authorID, itemID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, BadRequestf("user %d has no finished booking for item %d", authorID, itemID)
	}

	comment := &models.Comment{
		ItemID:   itemID,
		AuthorID: authorID,
		Text:     text,
		Created:  time.Now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID:  comment.ID,
			ItemID:     itemID,
			ItemName:   item.Name,
			AuthorName: author.Name,
			Text:       comment.Text,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return &models.CommentView{Comment: *comment, AuthorName: author.Name}, nil
}

func (s *ItemService) attachNeighborBookings(ctx context.Context, view *models.ItemView) error {
	now := time.Now().UTC()
	last, err := s.repo.LastApprovedBooking(ctx, view.ID, now)
	if err != nil {
		return err
	}
	next, err := s.repo.NextApprovedBooking(ctx, view.ID, now)
	if err != nil {
		return err
	}
	view.LastBooking = last
	view.NextBooking = next
	return nil
}

func (s *ItemService) invalidateSearch(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
