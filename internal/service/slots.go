package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"parking-service/internal/docstore"
	"parking-service/internal/repository"
)

// SlotService reconciles the configured slot capacity against live
// occupancy. The persisted available count is a denormalized cache for
// fast dashboard reads; every answer here is recomputed from the total
// and the occupancy calculator.
type SlotService struct {
	repo         *repository.ParkingRepository
	occupancy    *OccupancyService
	defaultTotal int
	log          zerolog.Logger
}

func NewSlotService(repo *repository.ParkingRepository, occupancy *OccupancyService, defaultTotal int, log zerolog.Logger) *SlotService {
	if defaultTotal <= 0 {
		defaultTotal = 10
	}
	return &SlotService{
		repo:         repo,
		occupancy:    occupancy,
		defaultTotal: defaultTotal,
		log:          log,
	}
}

// TotalSlots reads the configured capacity, lazily creating the
// counter document with the default capacity when absent.
func (s *SlotService) TotalSlots(ctx context.Context) (int, error) {
	counter, err := s.repo.SlotCounter(ctx)
	if err == nil {
		return counter.Total, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return 0, wrapStoreErr("get slot counter", err)
	}

	if err := s.repo.SetSlotCounter(ctx, s.defaultTotal, s.defaultTotal); err != nil {
		return 0, wrapStoreErr("create slot counter", err)
	}
	s.log.Info().Int("total", s.defaultTotal).Msg("created default slot counter")
	return s.defaultTotal, nil
}

// AvailableSlots recomputes capacity minus occupancy, clamped at zero,
// and writes the result back as an advisory cache.
func (s *SlotService) AvailableSlots(ctx context.Context) (int, error) {
	total, err := s.TotalSlots(ctx)
	if err != nil {
		return 0, err
	}

	occ, err := s.occupancy.CurrentVehicles(ctx)
	if err != nil {
		return 0, err
	}

	available := total - occ.Count
	if available < 0 {
		available = 0
	}

	// Cache write only; a failure here never invalidates the answer.
	if err := s.repo.SetAvailableSlots(ctx, available); err != nil {
		s.log.Warn().Err(err).Int("available", available).Msg("failed to persist available slot count")
	}

	return available, nil
}

// UpdateTotalSlots sets a new capacity and stores the recomputed
// available count alongside it in a single document write.
func (s *SlotService) UpdateTotalSlots(ctx context.Context, total int) (int, error) {
	if total < 0 {
		return 0, fmt.Errorf("%w: total slots cannot be negative", ErrInvalidArgument)
	}

	occ, err := s.occupancy.CurrentVehicles(ctx)
	if err != nil {
		return 0, err
	}

	available := total - occ.Count
	if available < 0 {
		available = 0
	}

	if err := s.repo.SetSlotCounter(ctx, total, available); err != nil {
		return 0, wrapStoreErr("update slot counter", err)
	}

	s.log.Info().
		Int("total", total).
		Int("available", available).
		Msg("updated total slots")

	return available, nil
}
