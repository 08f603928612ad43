package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type CategoryService struct {
	Repo    *repo.GormRepo
	Storage storage.Uploader
}

// Slugify turns "Buquês & Arranjos" into "buques-arranjos".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *CategoryService) List(ctx context.Context, query string) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, false, query)
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	c := models.Category{Active: true}
	apply(req, &c)
	if err := s.validate(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryService) Patch(ctx context.Context, id uuid.UUID, req transport.CategoryRequest) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(req, c)
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete refuses while products still point at the category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.Repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category has %d products", ErrConflict, n)
	}
	return notFound(s.Repo.DeleteCategory(ctx, id), "category")
}

func (s *CategoryService) UploadImage(ctx context.Context, id uuid.UUID, r io.Reader, filename string) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := uploadImage(ctx, s.Storage, "categories", r, filename)
	if err != nil {
		return nil, err
	}
	c.ImageURL = url
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func apply(req transport.CategoryRequest, c *models.Category) {
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		c.Slug = Slugify(*req.Slug)
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
}

func (s *CategoryService) validate(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return invalid("name is required")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return invalid("slug cannot be derived from name")
	}
	other, err := s.Repo.GetCategoryBySlug(ctx, c.Slug)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != c.ID:
		return fmt.Errorf("%w: slug %q already used", ErrConflict, c.Slug)
	}
	return nil
}
