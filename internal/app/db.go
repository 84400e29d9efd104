package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on Postgres.
type PGStore struct {
	DB *pgxpool.Pool
}

const bookingColumns = `id, date, time, customer_name, phone_number, email, transport_type,
	care_level, pickup_address, destination_address, round_trip, status,
	vehicle_id, google_event_id, created_at`

func scanBooking(row pgx.Row, b *Booking) error {
	var email *string
	err := row.Scan(&b.ID, &b.Date, &b.Time, &b.CustomerName, &b.PhoneNumber, &email,
		&b.TransportType, &b.CareLevel, &b.PickupAddress, &b.DestinationAddress,
		&b.RoundTrip, &b.Status, &b.VehicleID, &b.GoogleEventID, &b.CreatedAt)
	if err != nil {
		return err
	}
	if email != nil {
		b.Email = *email
	}
	return nil
}

func (s *PGStore) CreateBooking(ctx context.Context, b *Booking) error {
	now := time.Now().UTC()
	q := `INSERT INTO bookings
	      (id, date, time, customer_name, phone_number, email, transport_type,
	       care_level, pickup_address, destination_address, round_trip, status,
	       vehicle_id, google_event_id, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	var email *string
	if b.Email != "" {
		email = &b.Email
	}
	_, err := s.DB.Exec(ctx, q,
		b.ID, b.Date, b.Time, b.CustomerName, b.PhoneNumber, email, b.TransportType,
		b.CareLevel, b.PickupAddress, b.DestinationAddress, b.RoundTrip, b.Status,
		b.VehicleID, b.GoogleEventID, now)
	if err != nil {
		return err
	}
	b.CreatedAt = now
	return nil
}

func (s *PGStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	var b Booking
	err := scanBooking(s.DB.QueryRow(ctx, q, id), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PGStore) BookingsByDate(ctx context.Context, date string) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE date=$1 ORDER BY time, id`
	rows, err := s.DB.Query(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PGStore) SetBookingAssignment(ctx context.Context, id string, vehicleID *string, status BookingStatus) error {
	q := `UPDATE bookings SET vehicle_id=$1, status=$2 WHERE id=$3`
	ct, err := s.DB.Exec(ctx, q, vehicleID, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PGStore) SetBookingEventID(ctx context.Context, id string, eventID *string) error {
	q := `UPDATE bookings SET google_event_id=$1 WHERE id=$2`
	ct, err := s.DB.Exec(ctx, q, eventID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PGStore) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	q := `SELECT id, license_plate, type, seats, wheelchair_spaces, status,
	             maintenance_date, inspection_date
	      FROM vehicles WHERE id=$1`
	var v Vehicle
	err := s.DB.QueryRow(ctx, q, id).Scan(&v.ID, &v.LicensePlate, &v.Type, &v.Seats,
		&v.WheelchairSpaces, &v.Status, &v.MaintenanceDate, &v.InspectionDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PGStore) ActiveVehicles(ctx context.Context) ([]Vehicle, error) {
	q := `SELECT id, license_plate, type, seats, wheelchair_spaces, status,
	             maintenance_date, inspection_date
	      FROM vehicles WHERE status='active' ORDER BY license_plate`
	rows, err := s.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.LicensePlate, &v.Type, &v.Seats,
			&v.WheelchairSpaces, &v.Status, &v.MaintenanceDate, &v.InspectionDate); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PGStore) GetCredential(ctx context.Context, accountID string) (*Credential, error) {
	q := `SELECT account_id, access_token, refresh_token, expires_at
	      FROM user_google_accounts WHERE account_id=$1`
	var c Credential
	err := s.DB.QueryRow(ctx, q, accountID).Scan(&c.AccountID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("credential for %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) UpsertCredential(ctx context.Context, cred *Credential) error {
	q := `INSERT INTO user_google_accounts (account_id, access_token, refresh_token, expires_at, updated_at)
	      VALUES ($1,$2,$3,$4,now())
	      ON CONFLICT (account_id) DO UPDATE
	      SET access_token=EXCLUDED.access_token,
	          refresh_token=EXCLUDED.refresh_token,
	          expires_at=EXCLUDED.expires_at,
	          updated_at=now()`
	_, err := s.DB.Exec(ctx, q, cred.AccountID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt)
	return err
}

func (s *PGStore) ListCalendars(ctx context.Context, accountID string) ([]CalendarRef, error) {
	q := `SELECT account_id, calendar_id, calendar_name, is_primary, is_selected
	      FROM user_google_calendars WHERE account_id=$1
	      ORDER BY is_primary DESC, calendar_name`
	rows, err := s.DB.Query(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarRef
	for rows.Next() {
		var r CalendarRef
		if err := rows.Scan(&r.AccountID, &r.CalendarID, &r.CalendarName, &r.IsPrimary, &r.IsSelected); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) SelectedCalendar(ctx context.Context, accountID string) (*CalendarRef, error) {
	q := `SELECT account_id, calendar_id, calendar_name, is_primary, is_selected
	      FROM user_google_calendars WHERE account_id=$1 AND is_selected=true`
	var r CalendarRef
	err := s.DB.QueryRow(ctx, q, accountID).Scan(&r.AccountID, &r.CalendarID, &r.CalendarName, &r.IsPrimary, &r.IsSelected)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("selected calendar for %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PGStore) UpsertCalendars(ctx context.Context, refs []CalendarRef) error {
	// is_selected is deliberately left out of the update set: refreshing the
	// calendar list must not clear the dispatcher's choice.
	q := `INSERT INTO user_google_calendars (account_id, calendar_id, calendar_name, is_primary, is_selected)
	      VALUES ($1,$2,$3,$4,false)
	      ON CONFLICT (account_id, calendar_id) DO UPDATE
	      SET calendar_name=EXCLUDED.calendar_name,
	          is_primary=EXCLUDED.is_primary`
	for _, r := range refs {
		if _, err := s.DB.Exec(ctx, q, r.AccountID, r.CalendarID, r.CalendarName, r.IsPrimary); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) SelectCalendar(ctx context.Context, accountID, calendarID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE user_google_calendars SET is_selected=false WHERE account_id=$1`, accountID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx,
		`UPDATE user_google_calendars SET is_selected=true WHERE account_id=$1 AND calendar_id=$2`,
		accountID, calendarID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("calendar %s: %w", calendarID, ErrNotFound)
	}
	return tx.Commit(ctx)
}
