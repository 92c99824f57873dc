package service

import (
	"context"
	"errors"
	"time"

	"sharehub/internal/database"
	"sharehub/internal/domain"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger}
}

func (s *RequestService) CreateRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	request := &models.ItemRequest{
		RequestorID: userID,
		Description: description,
		Created:     time.Now().UTC(),
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("user_id", userID).Msg("item request created")
	return request, nil
}

// GetUserRequests returns the user's own requests, newest first, each with
// the items offered against it.
func (s *RequestService) GetUserRequests(ctx context.Context, userID int64) ([]*models.ItemRequestView, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetUserRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, requests)
}

// GetAllRequests lists requests created by other users, newest first.
func (s *RequestService) GetAllRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequestView, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetOtherRequests(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, requests)
}

func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequestView, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundf("request %d not found", requestID)
		}
		return nil, err
	}

	views, err := s.enrich(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *RequestService) enrich(ctx context.Context, requests []*models.ItemRequest) ([]*models.ItemRequestView, error) {
	views := make([]*models.ItemRequestView, 0, len(requests))
	for _, request := range requests {
		items, err := s.repo.GetItemsByRequest(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*models.Item{}
		}
		views = append(views, &models.ItemRequestView{ItemRequest: *request, Items: items})
	}
	return views, nil
}

func (s *RequestService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return NotFoundf("user %d not found", userID)
	}
	return nil
}
