package service

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type SettingsService struct {
	Repo    *repo.GormRepo
	Storage storage.Uploader
}

func (s *SettingsService) Get(ctx context.Context) (*models.StoreSettings, error) {
	return s.Repo.GetSettings(ctx)
}

func (s *SettingsService) Update(ctx context.Context, req transport.SettingsRequest) (*models.StoreSettings, error) {
	st, err := s.Repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&st.StoreName, req.StoreName)
	set(&st.PrimaryColor, req.PrimaryColor)
	set(&st.SecondaryColor, req.SecondaryColor)
	set(&st.ContactPhone, req.ContactPhone)
	set(&st.ChatPhone, req.ChatPhone)
	set(&st.ContactEmail, req.ContactEmail)
	set(&st.Address, req.Address)
	set(&st.Instagram, req.Instagram)

	for _, c := range []string{st.PrimaryColor, st.SecondaryColor} {
		if c != "" && !hexColor.MatchString(c) {
			return nil, invalid("color %q must be #RGB or #RRGGBB", c)
		}
	}
	if err := s.Repo.SaveSettings(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SettingsService) UploadLogo(ctx context.Context, r io.Reader, filename string) (*models.StoreSettings, error) {
	st, err := s.Repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	url, err := uploadImage(ctx, s.Storage, "branding", r, filename)
	if err != nil {
		return nil, err
	}
	st.LogoURL = url
	if err := s.Repo.SaveSettings(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
