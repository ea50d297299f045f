package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/booking"
	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/request"
	"github.com/hogwarts/facility-booking/internal/pkg/response"
	"github.com/hogwarts/facility-booking/internal/user"
)

type Handler struct {
	service         booking.Service
	facilityService facility.Service
	userService     user.Service
}

func NewHandler(service booking.Service, facilityService facility.Service, userService user.Service) *Handler {
	return &Handler{
		service:         service,
		facilityService: facilityService,
		userService:     userService,
	}
}

// caller re-reads the authenticated user so role changes apply before the token expires.
func (h *Handler) caller(c *gin.Context) (*user.User, bool) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return nil, false
		}
		response.Error(c, err)
		return nil, false
	}
	return u, true
}

// resolveOwner maps an ownerId to a user the caller may act for.
// Regular users may only name themselves.
func (h *Handler) resolveOwner(c *gin.Context, caller *user.User, ownerID string) (*user.User, error) {
	owner, err := h.userService.GetByHogwartsID(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) && !caller.Role.IsPrivileged() {
			return nil, booking.ErrPermissionDenied
		}
		return nil, err
	}
	if owner.ID != caller.ID && !caller.Role.IsPrivileged() {
		return nil, booking.ErrPermissionDenied
	}
	return owner, nil
}

func (h *Handler) Availability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "facility and date (YYYY-MM-DD) are required", err)
		return
	}

	ctx := c.Request.Context()
	f, err := h.facilityService.Resolve(ctx, q.Facility)
	if err != nil {
		response.Error(c, err)
		return
	}

	booked, err := h.service.CheckAvailability(ctx, f.ID, q.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAvailabilityResponse(booked))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	me, ok := h.caller(c)
	if !ok {
		return
	}
	owner, err := h.resolveOwner(c, me, req.OwnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	f, err := h.facilityService.Resolve(ctx, string(req.Facility))
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.CreateBooking(ctx, booking.CreateRequest{
		FacilityID: f.ID,
		OwnerID:    owner.ID,
		Date:       req.Date,
		Slot:       req.Slot(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateBookingResponse{OK: true, BookingID: b.ID})
}

func (h *Handler) ListMine(c *gin.Context) {
	var q MyBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "ownerId is required", err)
		return
	}

	me, ok := h.caller(c)
	if !ok {
		return
	}
	owner, err := h.resolveOwner(c, me, q.OwnerID)
	if err != nil {
		// staff looking up an unknown student simply see nothing
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusOK, response.NewListResponse([]BookingResponse(nil)))
			return
		}
		response.Error(c, err)
		return
	}

	items, err := h.service.ListBookingsForUser(c.Request.Context(), owner.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(NewBookingResponses(items)))
}

// Delete cancels the caller's own booking. Staff and admins may delete any booking.
func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	me, ok := h.caller(c)
	if !ok {
		return
	}

	var err error
	if me.Role.IsPrivileged() {
		err = h.service.DeleteBooking(c.Request.Context(), uri.ID)
	} else {
		err = h.service.CancelBooking(c.Request.Context(), uri.ID, me.ID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var req EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	f, err := h.facilityService.Resolve(ctx, string(req.Facility))
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.service.EditBooking(ctx, booking.EditRequest{
		BookingID:  uri.ID,
		FacilityID: f.ID,
		Date:       req.Date,
		Slot:       req.Slot(),
	}); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}

func (h *Handler) ListAll(c *gin.Context) {
	items, err := h.service.ListAllBookings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(NewBookingResponses(items)))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.BookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	rows := make([]StatRow, len(stats))
	for i, s := range stats {
		rows[i] = StatRow{Facility: s.FacilityName, Count: s.Count}
	}
	c.JSON(http.StatusOK, StatsResponse{OK: true, Rows: rows})
}

func (h *Handler) Count(c *gin.Context) {
	n, err := h.service.BookingCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{OK: true, Count: n})
}
