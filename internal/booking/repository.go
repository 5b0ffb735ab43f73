package booking

import (
	"context"
	"database/sql"
	"errors"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/database"
)

const (
	insertBookingQuery = "INSERT INTO tb_booking (resource_track_id, company_code, location_id, building_id, room_id, patient_id, staff_id, service_id, booking_date, start_time, end_time, status, source_of_ad, note) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id"
	insertHistoryQuery = "INSERT INTO tb_booking_status_history (booking_id, old_status, new_status, changed_by, note) VALUES ($1, $2, $3, $4, $5)"
	lockStatusQuery    = "SELECT status FROM tb_booking WHERE id = $1 FOR UPDATE"
	updateStatusQuery  = "UPDATE tb_booking SET status = $2, cancel_reason = COALESCE($3, cancel_reason), updated_at = NOW() WHERE id = $1"
	updateNoteQuery    = "UPDATE tb_booking SET note = $2, updated_at = NOW() WHERE id = $1"
	findBookingQuery   = "SELECT id, resource_track_id, company_code, location_id, building_id, room_id, patient_id, staff_id, service_id, booking_date, start_time, end_time, status, source_of_ad, note, cancel_reason, created_at, updated_at FROM tb_booking WHERE id = $1"
	listHistoryQuery   = "SELECT id, booking_id, old_status, new_status, changed_by, changed_at, note FROM tb_booking_status_history WHERE booking_id = $1 ORDER BY changed_at DESC, id DESC"
)

// Change holds who asked for a transition and the optional data stored with it.
type Change struct {
	ChangedBy int64
	Reason    *string
	Note      *string
}

// Repository provides access to booking data.
type Repository interface {

	// Insert inserts a new booking together with its initial history row, returning its ID.
	Insert(ctx context.Context, booking Booking, changedBy int64) (int64, error)

	// Transition locks the booking, asks next for the status to move to and writes the new
	// status and its history row in the same transaction.
	Transition(ctx context.Context, bookingID int64, next func(from Status) (Status, error), change Change) (StatusChange, error)

	// UpdateNote replaces the booking note, reporting false if there is no such booking.
	UpdateNote(ctx context.Context, bookingID int64, note *string) (bool, error)

	// FindBooking finds a booking by its ID.
	FindBooking(ctx context.Context, bookingID int64) (*Booking, error)

	// ListHistory lists the status changes of a booking, most recent first.
	ListHistory(ctx context.Context, bookingID int64) ([]History, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) Insert(ctx context.Context, booking Booking, changedBy int64) (int64, error) {
	params := make([]interface{}, 14)
	params[0] = booking.ResourceTrackID
	params[1] = booking.CompanyCode
	params[2] = booking.LocationID
	params[3] = booking.BuildingID
	params[4] = booking.RoomID
	params[5] = booking.PatientID
	params[6] = booking.StaffID
	params[7] = booking.ServiceID
	params[8] = booking.BookingDate.Format("2006-01-02")
	params[9] = booking.StartTime
	params[10] = booking.EndTime
	params[11] = booking.Status
	params[12] = booking.SourceOfAd
	params[13] = booking.Note
	var id int64
	err := database.WithTx(ctx, d.dbConn, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, insertBookingQuery, params...).Scan(&id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertHistoryQuery, id, nil, booking.Status, changedBy, nil)
		return err
	})
	return id, err
}

func (d defaultRepository) Transition(ctx context.Context, bookingID int64, next func(from Status) (Status, error), change Change) (StatusChange, error) {
	result := StatusChange{BookingID: bookingID}
	err := database.WithTx(ctx, d.dbConn, func(tx *sql.Tx) error {
		var from Status
		if err := tx.QueryRowContext(ctx, lockStatusQuery, bookingID).Scan(&from); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierrors.NotFound(ErrBookingNotFound)
			}
			return err
		}
		to, err := next(from)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, updateStatusQuery, bookingID, to, change.Reason); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, insertHistoryQuery, bookingID, from, to, change.ChangedBy, change.Note); err != nil {
			return err
		}
		result.From, result.To = from, to
		return nil
	})
	return result, err
}

func (d defaultRepository) UpdateNote(ctx context.Context, bookingID int64, note *string) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, updateNoteQuery, bookingID, note)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d defaultRepository) FindBooking(ctx context.Context, bookingID int64) (*Booking, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findBookingQuery, bookingID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	booking := new(Booking)
	for rows.Next() {
		if err = database.TransformRow(rows, booking); err != nil {
			return nil, err
		}
		if booking.ID > 0 {
			return booking, nil
		}
	}
	return nil, rows.Err()
}

func (d defaultRepository) ListHistory(ctx context.Context, bookingID int64) ([]History, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listHistoryQuery, bookingID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	history := make([]History, 0)
	for rows.Next() {
		entry := History{}
		if err = database.TransformRow(rows, &entry); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
