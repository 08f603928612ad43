package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type SpecialItemService struct {
	Repo    *repo.GormRepo
	Storage storage.Uploader
}

func (s *SpecialItemService) List(ctx context.Context, query string) ([]models.SpecialItem, error) {
	return s.Repo.ListSpecialItems(ctx, false, query)
}

func (s *SpecialItemService) Get(ctx context.Context, id uuid.UUID) (*models.SpecialItem, error) {
	it, err := s.Repo.GetSpecialItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "special item")
	}
	return it, nil
}

func (s *SpecialItemService) Create(ctx context.Context, req transport.SpecialItemRequest) (*models.SpecialItem, error) {
	it := models.SpecialItem{Active: true}
	if err := s.apply(req, &it); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateSpecialItem(ctx, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *SpecialItemService) Patch(ctx context.Context, id uuid.UUID, req transport.SpecialItemRequest) (*models.SpecialItem, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(req, it); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSpecialItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *SpecialItemService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.DeleteSpecialItem(ctx, id), "special item")
}

func (s *SpecialItemService) UploadImage(ctx context.Context, id uuid.UUID, r io.Reader, filename string) (*models.SpecialItem, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := uploadImage(ctx, s.Storage, "special-items", r, filename)
	if err != nil {
		return nil, err
	}
	it.ImageURL = url
	if err := s.Repo.SaveSpecialItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *SpecialItemService) apply(req transport.SpecialItemRequest, it *models.SpecialItem) error {
	if req.Title != nil {
		it.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Price != nil {
		it.Price = req.Price.Round(2)
	}
	if req.Active != nil {
		it.Active = *req.Active
	}
	if it.Title == "" {
		return invalid("title is required")
	}
	if it.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	return nil
}
