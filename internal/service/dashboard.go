package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
)

const topN = 5

type DailyPoint struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductRank struct {
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type Metrics struct {
	Days           int                        `json:"days"`
	TotalOrders    int                        `json:"total_orders"`
	Revenue        decimal.Decimal            `json:"revenue"`
	AverageTicket  decimal.Decimal            `json:"average_ticket"`
	PendingOrders  int                        `json:"pending_orders"`
	TotalProducts  int64                      `json:"total_products"`
	ActiveProducts int64                      `json:"active_products"`
	ByStatus       map[models.OrderStatus]int `json:"by_status"`
	Daily          []DailyPoint               `json:"daily"`
	TopByQuantity  []ProductRank              `json:"top_by_quantity"`
	TopByRevenue   []ProductRank              `json:"top_by_revenue"`
}

type DashboardService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *DashboardService) Metrics(ctx context.Context, days int) (*Metrics, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	now = now.UTC()
	start := dayStart(now).AddDate(0, 0, -(days - 1))

	orders, err := s.Repo.OrdersSince(ctx, start)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.CountProducts(ctx, false)
	if err != nil {
		return nil, err
	}
	active, err := s.Repo.CountProducts(ctx, true)
	if err != nil {
		return nil, err
	}

	m := Compute(orders, days, now)
	m.TotalProducts = total
	m.ActiveProducts = active
	return &m, nil
}

// Compute aggregates completed orders inside the window ending at now.
// Cancelled orders count by status but add no revenue.
func Compute(orders []models.Order, days int, now time.Time) Metrics {
	now = now.UTC()
	start := dayStart(now).AddDate(0, 0, -(days - 1))

	m := Metrics{
		Days:     days,
		Revenue:  decimal.Zero,
		ByStatus: map[models.OrderStatus]int{},
		Daily:    make([]DailyPoint, days),
	}
	index := make(map[string]int, days)
	for i := range m.Daily {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		m.Daily[i] = DailyPoint{Date: d, Revenue: decimal.Zero}
		index[d] = i
	}

	ranks := map[string]*ProductRank{}
	paid := 0
	for _, o := range orders {
		if o.CompletedAt == nil || o.CreatedAt.Before(start) {
			continue
		}
		m.TotalOrders++
		m.ByStatus[o.Status]++
		if o.Status == models.OrderStatusPending {
			m.PendingOrders++
		}
		if o.Status == models.OrderStatusCancelled {
			continue
		}

		paid++
		m.Revenue = m.Revenue.Add(o.TotalPrice)
		if i, ok := index[o.CreatedAt.UTC().Format(time.DateOnly)]; ok {
			m.Daily[i].Orders++
			m.Daily[i].Revenue = m.Daily[i].Revenue.Add(o.TotalPrice)
		}
		for _, it := range o.Items {
			r, ok := ranks[it.ProductTitle]
			if !ok {
				r = &ProductRank{Title: it.ProductTitle, Revenue: decimal.Zero}
				ranks[it.ProductTitle] = r
			}
			r.Quantity += it.Quantity
			r.Revenue = r.Revenue.Add(it.LineTotal())
		}
	}
	if paid > 0 {
		m.AverageTicket = m.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}

	all := make([]ProductRank, 0, len(ranks))
	for _, r := range ranks {
		all = append(all, *r)
	}
	m.TopByQuantity = top(all, func(a, b ProductRank) bool {
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Title < b.Title
	})
	m.TopByRevenue = top(all, func(a, b ProductRank) bool {
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.Title < b.Title
	})
	return m
}

func top(in []ProductRank, less func(a, b ProductRank) bool) []ProductRank {
	out := make([]ProductRank, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
