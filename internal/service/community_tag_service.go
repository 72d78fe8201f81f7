package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

var (
	ErrTagNotFound = errors.New("community tag not found")
	ErrInvalidTag  = errors.New("invalid community tag")
)

type CommunityTagService interface {
	List(ctx context.Context) ([]*models.CommunityTag, error)
	Create(ctx context.Context, in *transfer.CommunityTagInput) (*models.CommunityTag, error)
	Update(ctx context.Context, id int64, in *transfer.CommunityTagInput) (*models.CommunityTag, error)
	Remove(ctx context.Context, id int64) error
}

type communityTagService struct {
	tr repository.CommunityTagRepository
}

func NewCommunityTagService(tr repository.CommunityTagRepository) CommunityTagService {
	return &communityTagService{tr: tr}
}

func tagFromInput(in *transfer.CommunityTagInput) (*models.CommunityTag, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidTag)
	}
	tag := &models.CommunityTag{
		TagName:       strings.TrimSpace(in.TagName),
		CommunityID:   strings.TrimSpace(in.CommunityID),
		CommunityName: strings.TrimSpace(in.CommunityName),
	}
	if tag.TagName == "" || tag.CommunityID == "" {
		return nil, fmt.Errorf("%w: tag_name and community_id are required", ErrInvalidTag)
	}
	return tag, nil
}

func (s *communityTagService) List(ctx context.Context) ([]*models.CommunityTag, error) {
	return s.tr.List(ctx)
}

func (s *communityTagService) Create(ctx context.Context, in *transfer.CommunityTagInput) (*models.CommunityTag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	id, err := s.tr.Create(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("error creating community tag: %w", err)
	}
	return s.tr.GetByID(ctx, id)
}

func (s *communityTagService) Update(ctx context.Context, id int64, in *transfer.CommunityTagInput) (*models.CommunityTag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	tag.ID = id
	if err := s.tr.Update(ctx, tag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("error updating community tag: %w", err)
	}
	return s.tr.GetByID(ctx, id)
}

func (s *communityTagService) Remove(ctx context.Context, id int64) error {
	tag, err := s.tr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tag == nil {
		return ErrTagNotFound
	}
	return s.tr.Remove(ctx, id)
}
