// Package schedule contains handlers, services and structures used to resolve building
// schedules and build the room availability grid.
package schedule

import (
	"context"
	"time"

	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/metrics"
)

// Resolver determines the methods available to resolve the schedule of a building.
type Resolver interface {

	// ResolveSchedule returns the schedule in force for the building on the given date.
	ResolveSchedule(ctx context.Context, building Building, date time.Time) (EffectiveSchedule, error)
}

// GridBuilder determines the methods available to build availability grids.
type GridBuilder interface {

	// BuildGrid builds one page of the room availability grid. A closed day or a building
	// without rooms is a result, not an error.
	BuildGrid(ctx context.Context, request GridRequest) (*GridResult, error)
}

// Service determines the methods used to read building schedules.
type Service interface {
	Resolver
	GridBuilder
}

type defaultService struct {
	repository Repository
	defaults   configs.ScheduleDefaults
}

// NewService creates a new schedule service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		defaults:   config.ScheduleDefaults(),
		repository: newRepository(dbConn),
	}
}

func (d defaultService) ResolveSchedule(ctx context.Context, building Building, date time.Time) (EffectiveSchedule, error) {
	exception, err := d.repository.FindException(ctx, building, date)
	if err != nil {
		return EffectiveSchedule{}, database.Classify(err)
	}
	if exception != nil && exception.IsClosed {
		return Resolve(exception, nil, d.defaults), nil
	}
	config, err := d.repository.FindConfig(ctx, building)
	if err != nil {
		return EffectiveSchedule{}, database.Classify(err)
	}
	return Resolve(exception, config, d.defaults), nil
}

func (d defaultService) BuildGrid(ctx context.Context, request GridRequest) (*GridResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	result, err := d.buildGrid(ctx, request)
	if err != nil {
		return nil, err
	}
	metrics.ObserveGrid(string(result.State))
	return result, nil
}

func (d defaultService) buildGrid(ctx context.Context, request GridRequest) (*GridResult, error) {
	effective, err := d.ResolveSchedule(ctx, request.Building, request.Date)
	if err != nil {
		return nil, err
	}
	if effective.Closed {
		return &GridResult{State: GridClosed, Message: ErrScheduleClosed}, nil
	}
	rooms, err := d.repository.ListRooms(ctx, request.BuildingID)
	if err != nil {
		return nil, database.Classify(err)
	}
	if len(rooms) == 0 {
		return &GridResult{State: GridNoRooms, Message: ErrNoRoomsAvailable}, nil
	}
	maxColumns, err := d.repository.FindMaxColumns(ctx, request.Building)
	if err != nil {
		return nil, database.Classify(err)
	}
	if maxColumns <= 0 {
		maxColumns = d.defaults.MaxColumns
	}
	bookings, err := d.repository.ListBookings(ctx, request.BuildingID, request.Date)
	if err != nil {
		return nil, database.Classify(err)
	}
	window := narrow(effective.Window, request.ViewMode)
	pageRooms, page, totalPages := paginate(rooms, maxColumns, request.Page)
	grid := &Grid{
		Date:       request.Date.Format("2006-01-02"),
		Window:     window,
		Rooms:      pageRooms,
		Timeslots:  buildRows(timeAxis(window), pageRooms, indexBookings(bookings)),
		Page:       page,
		TotalPages: totalPages,
	}
	return &GridResult{State: GridReady, Grid: grid}, nil
}
