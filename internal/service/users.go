package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/hash"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

const minPasswordLen = 8

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) List(ctx context.Context, query string) ([]models.AdminUser, error) {
	return s.Repo.ListUsers(ctx, query)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, req transport.CreateUserRequest) (*models.AdminUser, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	switch {
	case req.Username == "":
		return nil, invalid("username is required")
	case len(req.Password) < minPasswordLen:
		return nil, invalid("password must have at least %d characters", minPasswordLen)
	case !req.Role.Valid():
		return nil, invalid("unknown role %q", req.Role)
	}

	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := models.AdminUser{
		Username:     req.Username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: pw,
		Role:         req.Role,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: username taken", ErrConflict)
		}
		return nil, err
	}
	return &u, nil
}

// Patch updates name, password or role. Admins cannot demote themselves and the
// last master keeps its role.
func (s *UserService) Patch(ctx context.Context, actor, id uuid.UUID, req transport.PatchUserRequest) (*models.AdminUser, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLen {
			return nil, invalid("password must have at least %d characters", minPasswordLen)
		}
		pw, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = pw
	}
	if req.Role != nil && *req.Role != u.Role {
		if !req.Role.Valid() {
			return nil, invalid("unknown role %q", *req.Role)
		}
		if actor == id {
			return nil, fmt.Errorf("%w: cannot change your own role", ErrForbidden)
		}
		if err := s.keepOneMaster(ctx, u); err != nil {
			return nil, err
		}
		u.Role = *req.Role
	}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if actor == id {
		return fmt.Errorf("%w: cannot delete yourself", ErrForbidden)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.keepOneMaster(ctx, u); err != nil {
		return err
	}
	return notFound(s.Repo.DeleteUser(ctx, id), "user")
}

func (s *UserService) keepOneMaster(ctx context.Context, u *models.AdminUser) error {
	if u.Role != roles.Master {
		return nil
	}
	n, err := s.Repo.CountUsersWithRole(ctx, roles.Master)
	if err != nil {
		return err
	}
	if n <= 1 {
		return fmt.Errorf("%w: the last master cannot be removed", ErrConflict)
	}
	return nil
}
