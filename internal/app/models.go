package app

import "time"

// TransportType is the kind of transport a booking requires.
type TransportType string

const (
	TransportSitting       TransportType = "sitting"
	TransportWheelchair    TransportType = "wheelchair"
	TransportCarryingChair TransportType = "carryingChair"
)

func (t TransportType) Valid() bool {
	switch t {
	case TransportSitting, TransportWheelchair, TransportCarryingChair:
		return true
	}
	return false
}

// Label is the German badge text used in calendar descriptions and the UI.
func (t TransportType) Label() string {
	switch t {
	case TransportSitting:
		return "Sitzend"
	case TransportWheelchair:
		return "Rollstuhl"
	case TransportCarryingChair:
		return "Tragestuhl"
	}
	return string(t)
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAssigned  BookingStatus = "assigned"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether the status ends a booking's lifecycle.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type VehicleType string

const (
	VehicleKTW  VehicleType = "KTW"
	VehicleRTW  VehicleType = "RTW"
	VehicleTaxi VehicleType = "Taxi"
)

type VehicleStatus string

const (
	VehicleActive   VehicleStatus = "active"
	VehicleInactive VehicleStatus = "inactive"
)

type Booking struct {
	ID                 string        `json:"id"`
	Date               string        `json:"date"` // YYYY-MM-DD
	Time               string        `json:"time"` // HH:MM
	CustomerName       string        `json:"customer_name"`
	PhoneNumber        string        `json:"phone_number"`
	Email              string        `json:"email,omitempty"`
	TransportType      TransportType `json:"transport_type"`
	CareLevel          int           `json:"care_level"`
	PickupAddress      string        `json:"pickup_address"`
	DestinationAddress string        `json:"destination_address"`
	RoundTrip          bool          `json:"round_trip"`
	Status             BookingStatus `json:"status"`
	VehicleID          *string       `json:"vehicle_id,omitempty"`
	GoogleEventID      *string       `json:"google_event_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at,omitempty"`
}

type Vehicle struct {
	ID               string        `json:"id"`
	LicensePlate     string        `json:"license_plate"`
	Type             VehicleType   `json:"type"`
	Seats            int           `json:"seats"`
	WheelchairSpaces int           `json:"wheelchair_spaces"`
	Status           VehicleStatus `json:"status"`
	MaintenanceDate  *string       `json:"maintenance_date,omitempty"`
	InspectionDate   *string       `json:"inspection_date,omitempty"`
}

type VehicleWithBookings struct {
	Vehicle
	Bookings []Booking `json:"bookings"`
}

// CalendarRef is one external calendar known for a staff account. At most one
// ref per account carries is_selected=true.
type CalendarRef struct {
	AccountID    string `json:"account_id"`
	CalendarID   string `json:"calendar_id"`
	CalendarName string `json:"calendar_name"`
	IsPrimary    bool   `json:"is_primary"`
	IsSelected   bool   `json:"is_selected"`
}

// Credential is the stored OAuth token pair for a staff account.
type Credential struct {
	AccountID    string    `json:"account_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}
