package staffing

import (
	"context"
	"time"

	"clinic-booking/internal/database"

	"github.com/lib/pq"
)

const (
	findRoomQuery          = "SELECT id FROM tb_room WHERE id = $1"
	listCandidatesQuery    = "SELECT s.id AS staff_id, s.name AS staff_name, s.role, sl.location_id FROM tb_staff s JOIN tb_staff_location sl ON sl.staff_id = s.id AND sl.is_active = TRUE WHERE s.is_active = TRUE AND s.role = $1"
	listRoomServicesQuery  = "SELECT service_id FROM tb_room_service WHERE room_id = $1 AND is_active = TRUE"
	listStaffServicesQuery = "SELECT staff_id, service_id FROM tb_staff_service WHERE staff_id = ANY($1) AND is_active = TRUE"
	listWorkPatternsQuery  = "SELECT staff_id, location_id, weekday, valid_from, valid_to FROM tb_staff_work_pattern WHERE staff_id = ANY($1) AND weekday = $2 AND is_active = TRUE"
	listLeavesQuery        = "SELECT staff_id, date_from, date_to, part_of_day FROM tb_staff_leave WHERE staff_id = ANY($1) AND status = 'approved' AND is_active = TRUE AND date_from <= $2 AND date_to >= $2"
	listStaffBookingsQuery = "SELECT staff_id, start_time, end_time FROM tb_booking WHERE staff_id = ANY($1) AND booking_date = $2 AND status <> 'cancelled'"
)

// Repository provides access to the staff registry and the staff bookings.
type Repository interface {

	// RoomExists checks if the room is registered.
	RoomExists(ctx context.Context, roomID int64) (bool, error)

	// ListCandidates lists one row per active staff member of the role and active location assignment.
	ListCandidates(ctx context.Context, role string) ([]Candidate, error)

	// ListRoomServices lists the services the room actively offers.
	ListRoomServices(ctx context.Context, roomID int64) ([]int64, error)

	// ListStaffServices lists the active qualifications of the given staff.
	ListStaffServices(ctx context.Context, staffIDs []int64) ([]StaffService, error)

	// ListWorkPatterns lists the active work patterns of the given staff on the weekday of date.
	ListWorkPatterns(ctx context.Context, staffIDs []int64, date time.Time) ([]WorkPattern, error)

	// ListLeaves lists the approved active leaves of the given staff touching date.
	ListLeaves(ctx context.Context, staffIDs []int64, date time.Time) ([]Leave, error)

	// ListBookings lists the non cancelled bookings of the given staff on date.
	ListBookings(ctx context.Context, staffIDs []int64, date time.Time) ([]Booking, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

// list runs query and maps every row into a new T.
func list[T any](ctx context.Context, dbConn database.Connection, query string, params ...interface{}) ([]T, error) {
	ctx, cancel := dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := dbConn.DB().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	items := make([]T, 0)
	for rows.Next() {
		item := new(T)
		if err = database.TransformRow(rows, item); err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (d defaultRepository) RoomExists(ctx context.Context, roomID int64) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findRoomQuery, roomID)
	if err != nil {
		return false, err
	}
	defer database.CloseRows(rows)
	return rows.Next(), rows.Err()
}

func (d defaultRepository) ListCandidates(ctx context.Context, role string) ([]Candidate, error) {
	return list[Candidate](ctx, d.dbConn, listCandidatesQuery, role)
}

func (d defaultRepository) ListRoomServices(ctx context.Context, roomID int64) ([]int64, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listRoomServicesQuery, roomID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (d defaultRepository) ListStaffServices(ctx context.Context, staffIDs []int64) ([]StaffService, error) {
	return list[StaffService](ctx, d.dbConn, listStaffServicesQuery, pq.Array(staffIDs))
}

func (d defaultRepository) ListWorkPatterns(ctx context.Context, staffIDs []int64, date time.Time) ([]WorkPattern, error) {
	return list[WorkPattern](ctx, d.dbConn, listWorkPatternsQuery, pq.Array(staffIDs), int64(WeekdayOf(date)))
}

func (d defaultRepository) ListLeaves(ctx context.Context, staffIDs []int64, date time.Time) ([]Leave, error) {
	return list[Leave](ctx, d.dbConn, listLeavesQuery, pq.Array(staffIDs), date.Format("2006-01-02"))
}

func (d defaultRepository) ListBookings(ctx context.Context, staffIDs []int64, date time.Time) ([]Booking, error) {
	return list[Booking](ctx, d.dbConn, listStaffBookingsQuery, pq.Array(staffIDs), date.Format("2006-01-02"))
}
