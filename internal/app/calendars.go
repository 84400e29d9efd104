package app

import (
	"context"
	"errors"
)

// ListCalendars fetches the account's calendar list from Google, mirrors it
// into the store keyed by (account, calendar) and auto-selects the primary
// calendar when nothing is selected yet. Returns the stored refs ordered
// primary-first.
func (a *App) ListCalendars(ctx context.Context, accountID string) ([]CalendarRef, error) {
	cred, err := a.GetCredential(ctx, accountID)
	if err != nil {
		return nil, err
	}
	tok, err := a.freshToken(ctx, cred)
	if err != nil {
		return nil, err
	}
	srv, err := a.calendarService(ctx, tok)
	if err != nil {
		return nil, err
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, syncErr("calendar list", err)
	}

	refs := make([]CalendarRef, 0, len(list.Items))
	for _, item := range list.Items {
		refs = append(refs, CalendarRef{
			AccountID:    accountID,
			CalendarID:   item.Id,
			CalendarName: item.Summary,
			IsPrimary:    item.Primary,
		})
	}
	if len(refs) > 0 {
		if err := a.Store.UpsertCalendars(ctx, refs); err != nil {
			return nil, err
		}
		if _, err := a.Store.SelectedCalendar(ctx, accountID); errors.Is(err, ErrNotFound) {
			for _, r := range refs {
				if r.IsPrimary {
					if err := a.Store.SelectCalendar(ctx, accountID, r.CalendarID); err != nil {
						return nil, err
					}
					break
				}
			}
		} else if err != nil {
			return nil, err
		}
	}
	return a.Store.ListCalendars(ctx, accountID)
}

// SelectCalendar makes calendarID the single sync target for the account.
func (a *App) SelectCalendar(ctx context.Context, accountID, calendarID string) error {
	return a.Store.SelectCalendar(ctx, accountID, calendarID)
}
