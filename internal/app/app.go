package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"dispatch-service/internal/config"
)

const outboxSize = 64

// App ties the dispatch board, token vault, calendar selector and event
// synchronizer together around one Store.
type App struct {
	Store  Store
	Outbox *Outbox
	Log    zerolog.Logger

	cfg   *config.Config
	oauth *oauth2.Config
	loc   *time.Location

	// calendarEndpoint overrides the Google Calendar base URL in tests.
	calendarEndpoint string

	// enqueueSync is the dependency edge from assignment mutations to the
	// outbox; tests swap it to observe emitted tasks.
	enqueueSync func(SyncTask)
}

func New(cfg *config.Config, store Store, log zerolog.Logger) (*App, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	a := &App{
		Store: store,
		Log:   log,
		cfg:   cfg,
		loc:   loc,
		oauth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes:       []string{calendar.CalendarScope, calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
	}
	a.Outbox = NewOutbox(a.runSyncTask, nil, outboxSize, log)
	a.enqueueSync = a.Outbox.Enqueue
	return a, nil
}

func (a *App) runSyncTask(ctx context.Context, t SyncTask) (string, error) {
	return a.SyncEvent(ctx, t.AccountID, t.BookingID, t.Action)
}
