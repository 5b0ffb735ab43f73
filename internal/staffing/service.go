// Package staffing contains handlers, services and structures used to find the staff
// eligible to work in a room.
package staffing

import (
	"context"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/database"
	"clinic-booking/internal/metrics"
)

// Service determines the methods used to resolve staff eligibility.
type Service interface {

	// FindEligible narrows the staff of the requested role through the location, qualification,
	// availability and booking stages enabled by the request, ordered by staff name.
	FindEligible(ctx context.Context, request Request) ([]Candidate, error)
}

type defaultService struct {
	repository Repository
}

// NewService creates a new staffing service.
func NewService(dbConn database.Connection) Service {
	return &defaultService{repository: newRepository(dbConn)}
}

func staffIDs(candidates []Candidate) []int64 {
	seen := make(map[int64]bool, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for _, candidate := range candidates {
		if !seen[candidate.StaffID] {
			seen[candidate.StaffID] = true
			ids = append(ids, candidate.StaffID)
		}
	}
	return ids
}

func (d defaultService) FindEligible(ctx context.Context, request Request) ([]Candidate, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	exists, err := d.repository.RoomExists(ctx, request.RoomID)
	if err != nil {
		return nil, database.Classify(err)
	}
	if !exists {
		return nil, apierrors.NotFound(ErrRoomNotFound)
	}
	candidates, err := d.narrow(ctx, request)
	if err != nil {
		return nil, database.Classify(err)
	}
	metrics.ObserveEligibility(len(candidates))
	return SortByName(candidates), nil
}

// narrow loads the rows each stage needs only for the candidates still standing.
func (d defaultService) narrow(ctx context.Context, request Request) ([]Candidate, error) {
	candidates, err := d.repository.ListCandidates(ctx, request.Role)
	if err != nil {
		return nil, err
	}
	if request.CheckLocation {
		candidates = Apply(candidates, AtLocation(*request.LocationID))
	}
	if len(candidates) == 0 {
		return candidates, nil
	}
	roomServices, err := d.repository.ListRoomServices(ctx, request.RoomID)
	if err != nil {
		return nil, err
	}
	if len(roomServices) == 0 {
		return []Candidate{}, nil
	}
	staffServices, err := d.repository.ListStaffServices(ctx, staffIDs(candidates))
	if err != nil {
		return nil, err
	}
	candidates = Apply(candidates, Qualified(roomServices, staffServices))
	if request.CheckTimeslot && len(candidates) > 0 {
		patterns, err := d.repository.ListWorkPatterns(ctx, staffIDs(candidates), *request.Date)
		if err != nil {
			return nil, err
		}
		leaves, err := d.repository.ListLeaves(ctx, staffIDs(candidates), *request.Date)
		if err != nil {
			return nil, err
		}
		candidates = Apply(candidates, Available(*request.Date, *request.Time, patterns, leaves))
	}
	if request.CheckBooking && len(candidates) > 0 {
		bookings, err := d.repository.ListBookings(ctx, staffIDs(candidates), *request.Date)
		if err != nil {
			return nil, err
		}
		candidates = Apply(candidates, NotBooked(*request.Time, bookings))
	}
	return candidates, nil
}
