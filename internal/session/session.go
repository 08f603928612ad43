// Package session ties a shopper's cart and checkout progress to a server-issued,
// signed and expiring token. The token carries only the session id; values live
// in the session_values table.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/tokens"
)

const (
	KeyOrderID         = "checkout_order_id"
	KeyIdentification  = "checkout_identification"
	KeyDelivery        = "checkout_delivery"
	KeyPersonalization = "checkout_personalization"
	KeyStep3Complete   = "checkout_step3_complete"
	KeyCart            = cart.Key

	// KeyPlacedOrder outlives the checkout keys so the buyer can reopen the confirmation.
	KeyPlacedOrder = "placed_order_id"
)

// CheckoutKeys are removed together when a checkout completes.
var CheckoutKeys = []string{
	KeyOrderID,
	KeyIdentification,
	KeyDelivery,
	KeyPersonalization,
	KeyStep3Complete,
}

var ErrExpired = errors.New("session expired")

type Manager struct {
	Repo   *repo.GormRepo
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Issue stores a new session and returns its signed token.
func (m *Manager) Issue(ctx context.Context) (uuid.UUID, string, time.Time, error) {
	exp := m.now().Add(m.TTL)
	s := models.Session{ExpiresAt: exp}
	if err := m.Repo.CreateSession(ctx, &s); err != nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	tok, err := tokens.IssueSession(s.ID.String(), exp, m.Secret)
	if err != nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return s.ID, tok, exp, nil
}

// Resolve checks the token signature and the stored expiry. Bad tokens report
// tokens.ErrInvalidToken and dead sessions ErrExpired; anything else is a storage failure.
func (m *Manager) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := tokens.SessionClaimsFromToken(token, m.Secret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", tokens.ErrInvalidToken, err)
	}
	sid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, tokens.ErrInvalidToken
	}
	s, err := m.Repo.GetSession(ctx, sid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrExpired
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !s.ExpiresAt.After(m.now()) {
		return uuid.Nil, ErrExpired
	}
	return sid, nil
}

func (m *Manager) Get(ctx context.Context, sid uuid.UUID, key string) (string, bool, error) {
	return m.Repo.GetValue(ctx, sid, key)
}

func (m *Manager) Set(ctx context.Context, sid uuid.UUID, key, value string) error {
	return m.Repo.SetValue(ctx, sid, key, value)
}

func (m *Manager) Delete(ctx context.Context, sid uuid.UUID, keys ...string) error {
	return m.Repo.DeleteValues(ctx, sid, keys...)
}

// Sweep drops expired sessions.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.Repo.DeleteExpiredSessions(ctx, m.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, onErr func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := m.Sweep(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
