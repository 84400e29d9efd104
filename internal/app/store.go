package app

import "context"

// Store is the record-store boundary. Implementations return ErrNotFound
// (possibly wrapped) when a get resolves no record.
type Store interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	BookingsByDate(ctx context.Context, date string) ([]Booking, error)
	// SetBookingAssignment updates vehicle and lifecycle status together so
	// the assigned-iff-vehicle invariant holds after every write.
	SetBookingAssignment(ctx context.Context, id string, vehicleID *string, status BookingStatus) error
	SetBookingEventID(ctx context.Context, id string, eventID *string) error

	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	ActiveVehicles(ctx context.Context) ([]Vehicle, error)

	GetCredential(ctx context.Context, accountID string) (*Credential, error)
	UpsertCredential(ctx context.Context, cred *Credential) error

	ListCalendars(ctx context.Context, accountID string) ([]CalendarRef, error)
	SelectedCalendar(ctx context.Context, accountID string) (*CalendarRef, error)
	// UpsertCalendars inserts or refreshes refs keyed by (account, calendar)
	// without touching the selection flag.
	UpsertCalendars(ctx context.Context, refs []CalendarRef) error
	// SelectCalendar flips the selection to calendarID in one atomic step.
	SelectCalendar(ctx context.Context, accountID, calendarID string) error
}
