package schedule

import (
	"context"
	"time"

	"clinic-booking/internal/database"
)

const (
	findExceptionQuery  = "SELECT time_from, time_to, slot_minutes, is_closed FROM tb_schedule_exception WHERE company_code = $1 AND location_id = $2 AND building_id = $3 AND exception_date = $4 AND is_active = TRUE ORDER BY created_at DESC LIMIT 1"
	findConfigQuery     = "SELECT time_from, time_to, slot_minutes FROM tb_schedule_config WHERE company_code = $1 AND location_id = $2 AND building_id = $3 AND is_active = TRUE ORDER BY created_at DESC LIMIT 1"
	findMaxColumnsQuery = "SELECT max_columns FROM tb_view_config WHERE company_code = $1 AND location_id = $2 AND building_id = $3 AND is_active = TRUE ORDER BY is_default DESC, created_at DESC LIMIT 1"
	listRoomsQuery      = "SELECT id, name FROM tb_room WHERE building_id = $1 AND is_active = TRUE ORDER BY name, id"
	listBookingsQuery   = "SELECT b.id, b.room_id, b.start_time, b.status, p.name AS patient_name, s.name AS doctor_name, sv.name AS service_name FROM tb_booking b JOIN tb_room r ON r.id = b.room_id LEFT JOIN tb_patient p ON p.id = b.patient_id LEFT JOIN tb_staff s ON s.id = b.staff_id LEFT JOIN tb_service sv ON sv.id = b.service_id WHERE r.building_id = $1 AND b.booking_date = $2 ORDER BY b.id"
)

// Repository provides access to schedule configuration, rooms and bookings of a building.
// Every call reads fresh rows, nothing is cached between requests.
type Repository interface {

	// FindException finds the most recent active exception of the building on the given date.
	FindException(ctx context.Context, building Building, date time.Time) (*Exception, error)

	// FindConfig finds the most recent active schedule configuration of the building.
	FindConfig(ctx context.Context, building Building) (*Config, error)

	// FindMaxColumns finds the configured number of rooms per page, zero if there is none.
	FindMaxColumns(ctx context.Context, building Building) (int, error)

	// ListRooms lists the active rooms of the building ordered by name.
	ListRooms(ctx context.Context, buildingID int64) ([]Room, error)

	// ListBookings lists every booking of the building on the given date.
	ListBookings(ctx context.Context, buildingID int64, date time.Time) ([]Booking, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func buildingParams(building Building) []interface{} {
	params := make([]interface{}, 3, 4)
	params[0] = building.CompanyCode
	params[1] = building.LocationID
	params[2] = building.BuildingID
	return params
}

func (d defaultRepository) FindException(ctx context.Context, building Building, date time.Time) (*Exception, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := append(buildingParams(building), date.Format("2006-01-02"))
	rows, err := d.dbConn.DB().QueryContext(ctx, findExceptionQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	exception := new(Exception)
	if err = database.TransformRow(rows, exception); err != nil {
		return nil, err
	}
	return exception, nil
}

func (d defaultRepository) FindConfig(ctx context.Context, building Building) (*Config, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findConfigQuery, buildingParams(building)...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	config := new(Config)
	if err = database.TransformRow(rows, config); err != nil {
		return nil, err
	}
	return config, nil
}

func (d defaultRepository) FindMaxColumns(ctx context.Context, building Building) (int, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findMaxColumnsQuery, buildingParams(building)...)
	if err != nil {
		return 0, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return 0, rows.Err()
	}
	var maxColumns int
	if err = rows.Scan(&maxColumns); err != nil {
		return 0, err
	}
	return maxColumns, nil
}

func (d defaultRepository) ListRooms(ctx context.Context, buildingID int64) ([]Room, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listRoomsQuery, buildingID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	rooms := make([]Room, 0)
	for rows.Next() {
		room := Room{}
		if err = database.TransformRow(rows, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (d defaultRepository) ListBookings(ctx context.Context, buildingID int64, date time.Time) ([]Booking, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 2)
	params[0] = buildingID
	params[1] = date.Format("2006-01-02")
	rows, err := d.dbConn.DB().QueryContext(ctx, listBookingsQuery, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	bookings := make([]Booking, 0)
	for rows.Next() {
		booking := Booking{}
		if err = database.TransformRow(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
