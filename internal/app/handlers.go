package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func errStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAccountNotLinked),
		errors.Is(err, ErrNoCalendarSelected):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenRefreshFailed), errors.Is(err, ErrSyncFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortErr(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

// GET /api/schedule/:date
func (a *App) LoadDayHandler(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	board, err := a.LoadDay(c.Request.Context(), date)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

type createBookingReq struct {
	Date               string        `json:"date" binding:"required"`
	Time               string        `json:"time" binding:"required"`
	CustomerName       string        `json:"customer_name" binding:"required"`
	PhoneNumber        string        `json:"phone_number" binding:"required"`
	Email              string        `json:"email,omitempty"`
	TransportType      TransportType `json:"transport_type" binding:"required"`
	CareLevel          int           `json:"care_level" binding:"required,min=1,max=6"`
	PickupAddress      string        `json:"pickup_address" binding:"required"`
	DestinationAddress string        `json:"destination_address" binding:"required"`
	RoundTrip          bool          `json:"round_trip"`
}

// POST /api/bookings
// Minimal intake endpoint; bookings start pending and unassigned.
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req createBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.TransportType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transport_type"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	if _, err := minuteOfDay(req.Time); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time, expected HH:MM"})
		return
	}

	b := &Booking{
		ID:                 uuid.NewString(),
		Date:               req.Date,
		Time:               req.Time,
		CustomerName:       req.CustomerName,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		TransportType:      req.TransportType,
		CareLevel:          req.CareLevel,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		RoundTrip:          req.RoundTrip,
		Status:             StatusPending,
	}
	if err := a.Store.CreateBooking(c.Request.Context(), b); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type reassignReq struct {
	VehicleID *string `json:"vehicle_id"`
	AccountID string  `json:"account_id"`
}

// POST /api/bookings/:id/assignment
func (a *App) ReassignHandler(c *gin.Context) {
	var req reassignReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := a.Reassign(c.Request.Context(), req.AccountID, c.Param("id"), req.VehicleID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/google/auth?account_id=...
func (a *App) AuthURLHandler(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": a.AuthURL(accountID)})
}

// GET /oauth2callback?code=...&state=<account id>
// Registered outside the auth middleware; Google redirects here.
func (a *App) LinkCallbackHandler(c *gin.Context) {
	code := c.Query("code")
	accountID := c.Query("state")
	if code == "" || accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state required"})
		return
	}
	cred, err := a.Link(c.Request.Context(), accountID, code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "account_id": cred.AccountID})
}

// GET /api/google/status?account_id=...
func (a *App) StatusHandler(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id required"})
		return
	}
	cred, err := a.GetCredential(c.Request.Context(), accountID)
	if errors.Is(err, ErrAccountNotLinked) {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "expires_at": cred.ExpiresAt})
}

// GET /api/google/calendars?account_id=...
func (a *App) ListCalendarsHandler(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id required"})
		return
	}
	cals, err := a.ListCalendars(c.Request.Context(), accountID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calendars": cals, "count": len(cals)})
}

type selectCalendarReq struct {
	AccountID  string `json:"account_id" binding:"required"`
	CalendarID string `json:"calendar_id" binding:"required"`
}

// POST /api/google/calendars/select
func (a *App) SelectCalendarHandler(c *gin.Context) {
	var req selectCalendarReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.SelectCalendar(c.Request.Context(), req.AccountID, req.CalendarID); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type syncEventReq struct {
	AccountID string     `json:"account_id" binding:"required"`
	BookingID string     `json:"booking_id" binding:"required"`
	Action    SyncAction `json:"action" binding:"required"`
}

// POST /api/sync/event
func (a *App) SyncEventHandler(c *gin.Context) {
	var req syncEventReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eventID, err := a.SyncEvent(c.Request.Context(), req.AccountID, req.BookingID, req.Action)
	if err != nil {
		abortErr(c, err)
		return
	}
	resp := gin.H{"success": true}
	if eventID != "" {
		resp["event_id"] = eventID
	}
	c.JSON(http.StatusOK, resp)
}

type syncAllReq struct {
	AccountID string `json:"account_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
}

type syncAllItem struct {
	BookingID string `json:"booking_id"`
	OK        bool   `json:"ok"`
	EventID   string `json:"event_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// POST /api/sync/bookings
// Pushes every assigned booking of the date sequentially; one result per
// booking, a failure never aborts the batch.
func (a *App) SyncAllHandler(c *gin.Context) {
	var req syncAllReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	bookings, err := a.Store.BookingsByDate(ctx, req.Date)
	if err != nil {
		abortErr(c, err)
		return
	}

	var results []syncAllItem
	for _, b := range bookings {
		if b.Status != StatusAssigned {
			continue
		}
		action := SyncUpdate
		if b.GoogleEventID == nil {
			action = SyncCreate
		}
		eventID, err := a.SyncEvent(ctx, req.AccountID, b.ID, action)
		item := syncAllItem{BookingID: b.ID, OK: err == nil, EventID: eventID}
		if err != nil {
			item.Error = err.Error()
			a.Log.Warn().Str("booking", b.ID).Err(err).Msg("bulk sync item failed")
		}
		results = append(results, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
