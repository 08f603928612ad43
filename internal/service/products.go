package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

// Indexer keeps the search index in step with product writes.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ProductService struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Index   Indexer
	Storage storage.Uploader
}

func (s *ProductService) List(ctx context.Context, query, categoryID, active string, offset, limit int) (int64, []models.Product, error) {
	f := repo.ProductFilter{Query: query, Offset: offset, Limit: limit}
	if categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return 0, nil, invalid("category_id is not a uuid")
		}
		f.CategoryID = &id
	}
	if active != "" {
		want := active == "true"
		f.Active = &want
	}
	return s.Repo.ListProducts(ctx, f)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	p := models.Product{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active == nil || *req.Active,
		Featured:    req.Featured,
	}
	if req.CategoryID != "" {
		id, err := s.categoryRef(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		p.CategoryID = id
	}
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_created", p.ID)
	return s.Get(ctx, p.ID)
}

func (s *ProductService) Patch(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			p.CategoryID = nil
		} else {
			cid, err := s.categoryRef(ctx, *req.CategoryID)
			if err != nil {
				return nil, err
			}
			p.CategoryID = cid
		}
		p.Category = nil
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_updated", p.ID)
	return s.Get(ctx, p.ID)
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Error("search_index_error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, "product_deleted", id)
	return nil
}

// UploadImage resizes and stores an image, then attaches it to the product.
// The first image becomes the cover.
func (s *ProductService) UploadImage(ctx context.Context, id uuid.UUID, r io.Reader, filename string) (*models.Product, error) {
	if _, err := s.Repo.GetProduct(ctx, id); err != nil {
		return nil, notFound(err, "product")
	}
	url, err := uploadImage(ctx, s.Storage, "products", r, filename)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddProductImage(ctx, &models.ProductImage{ProductID: id, URL: url}); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_updated", id)
	return s.Get(ctx, id)
}

func (s *ProductService) DeleteImage(ctx context.Context, id, imageID uuid.UUID) (*models.Product, error) {
	if err := s.Repo.DeleteProductImage(ctx, id, imageID); err != nil {
		return nil, notFound(err, "image")
	}
	s.afterWrite(ctx, "product_updated", id)
	return s.Get(ctx, id)
}

func (s *ProductService) categoryRef(ctx context.Context, raw string) (*uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid("category_id is not a uuid")
	}
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("category does not exist")
		}
		return nil, err
	}
	return &id, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Title == "":
		return invalid("title is required")
	case p.Price.IsNegative():
		return invalid("price cannot be negative")
	case p.Stock < 0:
		return invalid("stock cannot be negative")
	}
	p.Price = p.Price.Round(2)
	return nil
}

func (s *ProductService) afterWrite(ctx context.Context, typ string, id uuid.UUID) {
	if s.Index != nil {
		if p, err := s.Repo.GetProduct(ctx, id); err == nil {
			if err := s.Index.IndexProduct(ctx, *p); err != nil {
				logging.FromContext(ctx).Error("search_index_error", "product_id", id, "error", err)
			}
		}
	}
	s.publish(ctx, typ, id)
}

func (s *ProductService) publish(ctx context.Context, typ string, id uuid.UUID) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event := map[string]any{"type": typ, "product_id": id.String(), "at": time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, mykafka.TopicProducts, id.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.TopicProducts, "error", err)
	}
}

func uploadImage(ctx context.Context, up storage.Uploader, folder string, r io.Reader, filename string) (string, error) {
	if up == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	body, err := storage.PrepareImage(r, filename)
	if err != nil {
		return "", invalid("%v", err)
	}
	return up.Put(ctx, storage.Key(folder), body, "image/jpeg")
}
