package resource

import (
	"context"
	"slices"
	"strings"
)

type CreateRequest struct {
	Name             string
	Description      string
	Location         string
	ResourceType     string
	Capacity         *int
	RequiresApproval bool
	CreatedBy        string
}

type UpdateRequest struct {
	Name             *string
	Description      *string
	Location         *string
	Capacity         *int
	IsAvailable      *bool
	RequiresApproval *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, ErrEmptyLocation
	}
	if !slices.Contains(ValidResourceTypes, req.ResourceType) {
		return nil, ErrInvalidResourceType
	}
	if req.Capacity != nil && *req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	res := &Resource{
		Name:             strings.TrimSpace(req.Name),
		Description:      nonEmpty(req.Description),
		Location:         strings.TrimSpace(req.Location),
		ResourceType:     req.ResourceType,
		Capacity:         req.Capacity,
		IsAvailable:      true,
		RequiresApproval: req.RequiresApproval,
		CreatedBy:        nonEmpty(req.CreatedBy),
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	if req == (UpdateRequest{}) {
		return nil, ErrNothingToUpdate
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		res.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, ErrEmptyLocation
		}
		res.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		res.Description = nonEmpty(*req.Description)
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, ErrInvalidCapacity
		}
		res.Capacity = req.Capacity
	}
	if req.IsAvailable != nil {
		res.IsAvailable = *req.IsAvailable
	}
	if req.RequiresApproval != nil {
		res.RequiresApproval = *req.RequiresApproval
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
