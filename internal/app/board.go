package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DayBoard is the vehicle x time-block grid for one date. Bookings that point
// at an inactive or unknown vehicle surface in the unassigned bucket so the
// partition stays exhaustive and the trip stays visible to the dispatcher.
type DayBoard struct {
	Date       string                `json:"date"`
	Blocks     []string              `json:"blocks"`
	Vehicles   []VehicleWithBookings `json:"vehicles"`
	Unassigned []Booking             `json:"unassigned"`
}

// TimeBlocks returns the block start labels ("HH:MM") for one day at the
// given width in minutes.
func TimeBlocks(blockMinutes int) []string {
	blocks := make([]string, 0, 1440/blockMinutes)
	for m := 0; m < 1440; m += blockMinutes {
		blocks = append(blocks, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return blocks
}

func minuteOfDay(hhmm string) (int, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	if len(m) < 2 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	// tolerate seconds suffixes like "09:00:00"
	min, err := strconv.Atoi(m[:2])
	if err != nil || min < 0 || min > 59 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return hour*60 + min, nil
}

// BookingsForSlot filters bookings to those assigned to vehicleID (nil means
// the unassigned bucket) whose start time falls within [block, block+width).
// Times off the block boundary bucket into the containing block.
func BookingsForSlot(bookings []Booking, vehicleID *string, block string, blockMinutes int) []Booking {
	start, err := minuteOfDay(block)
	if err != nil {
		return nil
	}
	var out []Booking
	for _, b := range bookings {
		bm, err := minuteOfDay(b.Time)
		if err != nil {
			continue
		}
		if bm < start || bm >= start+blockMinutes {
			continue
		}
		if sameAssignment(b.VehicleID, vehicleID) {
			out = append(out, b)
		}
	}
	return out
}

// CanAssign is the capability gate for putting a booking on a vehicle. The
// only hard constraint is wheelchair space; seat count is informational and
// not enforced here.
func CanAssign(b Booking, v Vehicle) bool {
	switch b.TransportType {
	case TransportWheelchair:
		return v.WheelchairSpaces > 0
	case TransportSitting, TransportCarryingChair:
		return true
	}
	return false
}

func sameAssignment(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// LoadDay partitions the date's bookings across active vehicles and the
// unassigned bucket. Read-only.
func (a *App) LoadDay(ctx context.Context, date string) (*DayBoard, error) {
	bookings, err := a.Store.BookingsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	vehicles, err := a.Store.ActiveVehicles(ctx)
	if err != nil {
		return nil, err
	}

	byVehicle := make(map[string][]Booking, len(vehicles))
	active := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		active[v.ID] = true
	}

	board := &DayBoard{
		Date:       date,
		Blocks:     TimeBlocks(a.cfg.Schedule.BlockMinutes),
		Unassigned: []Booking{},
	}
	for _, b := range bookings {
		if b.VehicleID != nil && active[*b.VehicleID] {
			byVehicle[*b.VehicleID] = append(byVehicle[*b.VehicleID], b)
			continue
		}
		board.Unassigned = append(board.Unassigned, b)
	}
	for _, v := range vehicles {
		vb := byVehicle[v.ID]
		if vb == nil {
			vb = []Booking{}
		}
		board.Vehicles = append(board.Vehicles, VehicleWithBookings{Vehicle: v, Bookings: vb})
	}
	return board, nil
}

// Reassign moves a booking to the destination vehicle (nil clears the
// assignment) and keeps status in lockstep: assigned iff a vehicle is set.
// Identical source and destination is a no-op and emits no sync task. The
// mirror update is enqueued only after the local write committed; its outcome
// never affects the assignment.
func (a *App) Reassign(ctx context.Context, accountID, bookingID string, vehicleID *string) (*Booking, error) {
	b, err := a.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if sameAssignment(b.VehicleID, vehicleID) {
		return b, nil
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidAction, b.ID, b.Status)
	}

	status := StatusPending
	if vehicleID != nil {
		v, err := a.Store.GetVehicle(ctx, *vehicleID)
		if err != nil {
			return nil, err
		}
		if v.Status != VehicleActive {
			return nil, fmt.Errorf("%w: vehicle %s is inactive", ErrInvalidAction, v.ID)
		}
		if !CanAssign(*b, *v) {
			return nil, fmt.Errorf("%w: %s has no wheelchair space for booking %s",
				ErrInvalidAction, v.LicensePlate, b.ID)
		}
		status = StatusAssigned
	}

	if err := a.Store.SetBookingAssignment(ctx, b.ID, vehicleID, status); err != nil {
		return nil, err
	}
	b.VehicleID = vehicleID
	b.Status = status

	a.enqueueSync(SyncTask{AccountID: accountID, BookingID: b.ID, Action: SyncUpdate})
	return b, nil
}
