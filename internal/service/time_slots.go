package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type TimeSlotService struct {
	Repo *repo.GormRepo
}

func (s *TimeSlotService) List(ctx context.Context) ([]models.DeliveryTimeSlot, error) {
	return s.Repo.ListTimeSlots(ctx, false)
}

func (s *TimeSlotService) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryTimeSlot, error) {
	slot, err := s.Repo.GetTimeSlot(ctx, id)
	if err != nil {
		return nil, notFound(err, "time slot")
	}
	return slot, nil
}

func (s *TimeSlotService) Create(ctx context.Context, req transport.TimeSlotRequest) (*models.DeliveryTimeSlot, error) {
	slot := models.DeliveryTimeSlot{Active: true}
	if err := applySlot(req, &slot); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateTimeSlot(ctx, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *TimeSlotService) Patch(ctx context.Context, id uuid.UUID, req transport.TimeSlotRequest) (*models.DeliveryTimeSlot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applySlot(req, slot); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveTimeSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *TimeSlotService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.DeleteTimeSlot(ctx, id), "time slot")
}

func applySlot(req transport.TimeSlotRequest, slot *models.DeliveryTimeSlot) error {
	if req.Name != nil {
		slot.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartTime != nil {
		slot.StartTime = strings.TrimSpace(*req.StartTime)
	}
	if req.EndTime != nil {
		slot.EndTime = strings.TrimSpace(*req.EndTime)
	}
	if req.Active != nil {
		slot.Active = *req.Active
	}

	if slot.Name == "" {
		return invalid("name is required")
	}
	start, err := time.Parse("15:04", slot.StartTime)
	if err != nil {
		return invalid("start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", slot.EndTime)
	if err != nil {
		return invalid("end_time must be HH:MM")
	}
	if !start.Before(end) {
		return invalid("start_time must be before end_time")
	}
	return nil
}
