package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// eventDuration is the fixed length of a mirrored trip event. Actual
// transport duration and the round-trip leg are not modeled.
const eventDuration = time.Hour

// SyncEvent pushes one booking's state to the selected external calendar.
// The external calendar is a best-effort mirror: local state is never changed
// on failure except that a confirmed delete clears the stored event id.
func (a *App) SyncEvent(ctx context.Context, accountID, bookingID string, action SyncAction) (string, error) {
	cred, err := a.GetCredential(ctx, accountID)
	if err != nil {
		return "", err
	}
	sel, err := a.Store.SelectedCalendar(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("account %s: %w", accountID, ErrNoCalendarSelected)
	}
	if err != nil {
		return "", err
	}
	b, err := a.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}

	tok, err := a.freshToken(ctx, cred)
	if err != nil {
		return "", err
	}
	srv, err := a.calendarService(ctx, tok)
	if err != nil {
		return "", err
	}

	switch action {
	case SyncCreate:
		ev, err := a.buildEvent(b)
		if err != nil {
			return "", err
		}
		created, err := srv.Events.Insert(sel.CalendarID, ev).Context(ctx).Do()
		if err != nil {
			return "", syncErr("create", err)
		}
		if err := a.Store.SetBookingEventID(ctx, b.ID, &created.Id); err != nil {
			return created.Id, err
		}
		return created.Id, nil

	case SyncUpdate:
		if b.GoogleEventID == nil {
			return "", fmt.Errorf("%w: booking %s has no calendar event to update", ErrInvalidAction, b.ID)
		}
		ev, err := a.buildEvent(b)
		if err != nil {
			return "", err
		}
		updated, err := srv.Events.Update(sel.CalendarID, *b.GoogleEventID, ev).Context(ctx).Do()
		if err != nil {
			return "", syncErr("update", err)
		}
		return updated.Id, nil

	case SyncDelete:
		if b.GoogleEventID == nil {
			return "", fmt.Errorf("%w: booking %s has no calendar event to delete", ErrInvalidAction, b.ID)
		}
		if err := srv.Events.Delete(sel.CalendarID, *b.GoogleEventID).Context(ctx).Do(); err != nil {
			// event id stays so the delete can be retried
			return "", syncErr("delete", err)
		}
		if err := a.Store.SetBookingEventID(ctx, b.ID, nil); err != nil {
			return "", err
		}
		return "", nil
	}
	return "", fmt.Errorf("%w: unknown sync action %q", ErrInvalidAction, action)
}

// buildEvent translates a booking into the calendar event payload. Start is
// date+time in the business timezone, end is start plus the fixed duration.
func (a *App) buildEvent(b *Booking) (*calendar.Event, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, a.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: booking %s has malformed date/time", ErrInvalidAction, b.ID)
	}
	end := start.Add(eventDuration)

	description := fmt.Sprintf("Transport von %s nach %s\nArt: %s\nPflegestufe: %d\nTel: %s",
		b.PickupAddress, b.DestinationAddress, b.TransportType.Label(), b.CareLevel, b.PhoneNumber)

	return &calendar.Event{
		Summary:     "Fahrt für " + b.CustomerName,
		Description: description,
		Location:    b.PickupAddress,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: a.cfg.Schedule.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: a.cfg.Schedule.Timezone,
		},
	}, nil
}

func (a *App) calendarService(ctx context.Context, tok *oauth2.Token) (*calendar.Service, error) {
	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}
	if a.calendarEndpoint != "" {
		opts = append(opts, option.WithEndpoint(a.calendarEndpoint))
	}
	return calendar.NewService(ctx, opts...)
}

func syncErr(action string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%w: %s returned status %d", ErrSyncFailed, action, gerr.Code)
	}
	return fmt.Errorf("%w: %s: %v", ErrSyncFailed, action, err)
}
