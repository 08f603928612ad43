package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
)

// Searcher is the full-text product index; nil falls back to SQL matching.
type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo        *repo.GormRepo
	Search      Searcher
	ChatBaseURL string
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, true, "")
}

func (s *CatalogService) Products(ctx context.Context, categorySlug string, featured bool, offset, limit int) (int64, []models.Product, error) {
	f := repo.ProductFilter{ActiveOnly: true, Featured: featured, Offset: offset, Limit: limit}
	if categorySlug != "" {
		cat, err := s.Repo.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			return 0, nil, notFound(err, "category")
		}
		if !cat.Active {
			return 0, nil, fmt.Errorf("%w: category", ErrNotFound)
		}
		f.CategoryID = &cat.ID
	}
	return s.Repo.ListProducts(ctx, f)
}

// Product returns an active product with its images.
func (s *CatalogService) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.Active {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) SpecialItems(ctx context.Context) ([]models.SpecialItem, error) {
	return s.Repo.ListSpecialItems(ctx, true, "")
}

func (s *CatalogService) TimeSlots(ctx context.Context) ([]models.DeliveryTimeSlot, error) {
	return s.Repo.ListTimeSlots(ctx, true)
}

func (s *CatalogService) Store(ctx context.Context) (*models.StoreSettings, error) {
	return s.Repo.GetSettings(ctx)
}

// Contact returns the storefront "talk to us" chat link.
func (s *CatalogService) Contact(ctx context.Context) (string, error) {
	st, err := s.Repo.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(st.ChatPhone) == "" {
		return "", fmt.Errorf("%w: chat phone not configured", ErrNotFound)
	}
	name := st.StoreName
	if name == "" {
		name = "a loja"
	}
	return checkout.ChatLink(s.ChatBaseURL, st.ChatPhone, "Olá! Vim pelo site de "+name+" e gostaria de ajuda."), nil
}

// SearchProducts uses the search index when configured and healthy, otherwise a LIKE query.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, invalid("query is required")
	}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			prods, err := s.byIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, prods, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "index unavailable", "error", err)
	}

	return s.Repo.ListProducts(ctx, repo.ProductFilter{Query: query, ActiveOnly: true, Offset: offset, Limit: limit})
}

// byIDs loads products keeping the index ranking and dropping inactive ones.
func (s *CatalogService) byIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	found, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}
