package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the unit tests. SelectCalendar is
// atomic, mirroring the transactional Postgres implementation.
type memStore struct {
	mu        sync.Mutex
	bookings  map[string]*Booking
	vehicles  map[string]*Vehicle
	creds     map[string]*Credential
	calendars map[string]map[string]*CalendarRef
}

func newMemStore() *memStore {
	return &memStore{
		bookings:  map[string]*Booking{},
		vehicles:  map[string]*Vehicle{},
		creds:     map[string]*Credential{},
		calendars: map[string]map[string]*CalendarRef{},
	}
}

func (s *memStore) putVehicle(v Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = &v
}

func (s *memStore) putBooking(b Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = &b
}

func (s *memStore) CreateBooking(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	cp.CreatedAt = time.Now().UTC()
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStore) GetBooking(_ context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) BookingsByDate(_ context.Context, date string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.Date == date {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) SetBookingAssignment(_ context.Context, id string, vehicleID *string, status BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	b.VehicleID = vehicleID
	b.Status = status
	return nil
}

func (s *memStore) SetBookingEventID(_ context.Context, id string, eventID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	b.GoogleEventID = eventID
	return nil
}

func (s *memStore) GetVehicle(_ context.Context, id string) (*Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *memStore) ActiveVehicles(_ context.Context) ([]Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Vehicle
	for _, v := range s.vehicles {
		if v.Status == VehicleActive {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicensePlate < out[j].LicensePlate })
	return out, nil
}

func (s *memStore) GetCredential(_ context.Context, accountID string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[accountID]
	if !ok {
		return nil, fmt.Errorf("credential for %s: %w", accountID, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpsertCredential(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cred
	s.creds[cred.AccountID] = &cp
	return nil
}

func (s *memStore) ListCalendars(_ context.Context, accountID string) ([]CalendarRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CalendarRef
	for _, r := range s.calendars[accountID] {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].CalendarName < out[j].CalendarName
	})
	return out, nil
}

func (s *memStore) SelectedCalendar(_ context.Context, accountID string) (*CalendarRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.calendars[accountID] {
		if r.IsSelected {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("selected calendar for %s: %w", accountID, ErrNotFound)
}

func (s *memStore) UpsertCalendars(_ context.Context, refs []CalendarRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range refs {
		byID := s.calendars[r.AccountID]
		if byID == nil {
			byID = map[string]*CalendarRef{}
			s.calendars[r.AccountID] = byID
		}
		if existing, ok := byID[r.CalendarID]; ok {
			existing.CalendarName = r.CalendarName
			existing.IsPrimary = r.IsPrimary
			continue
		}
		cp := r
		cp.IsSelected = false
		byID[r.CalendarID] = &cp
	}
	return nil
}

func (s *memStore) SelectCalendar(_ context.Context, accountID, calendarID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.calendars[accountID]
	if _, ok := byID[calendarID]; !ok {
		return fmt.Errorf("calendar %s: %w", calendarID, ErrNotFound)
	}
	for _, r := range byID {
		r.IsSelected = false
	}
	byID[calendarID].IsSelected = true
	return nil
}
