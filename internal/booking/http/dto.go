package http

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/hogwarts/facility-booking/internal/booking"
)

// FacilityRef accepts a facility as either a JSON number or a string alias.
type FacilityRef string

func (r *FacilityRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = FacilityRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = FacilityRef(n.String())
	return nil
}

type AvailabilityQuery struct {
	Facility string `form:"facility" binding:"required"`
	Date     string `form:"date" binding:"required,isodate"`
}

type AvailabilityResponse struct {
	Booked []string `json:"booked"`
	Free   []string `json:"free"`
}

func NewAvailabilityResponse(booked []booking.Interval) AvailabilityResponse {
	return AvailabilityResponse{
		Booked: slotStrings(booked),
		Free:   slotStrings(booking.FreeSlots(booking.StandardGrid, booked)),
	}
}

func slotStrings(in []booking.Interval) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}

type CreateBookingRequest struct {
	OwnerID   string      `json:"ownerId" binding:"required"`
	Facility  FacilityRef `json:"facility" binding:"required"`
	Date      string      `json:"date" binding:"required,isodate"`
	TimeSlot  string      `json:"timeSlot"`
	StartTime string      `json:"startTime" binding:"omitempty,clock"`
	EndTime   string      `json:"endTime" binding:"omitempty,clock"`
}

func (r CreateBookingRequest) Slot() booking.SlotInput {
	return booking.SlotInput{TimeSlot: r.TimeSlot, Start: r.StartTime, End: r.EndTime}
}

type CreateBookingResponse struct {
	OK        bool  `json:"ok"`
	BookingID int64 `json:"bookingId"`
}

type EditBookingRequest struct {
	Facility  FacilityRef `json:"facility" binding:"required"`
	Date      string      `json:"date" binding:"required,isodate"`
	TimeSlot  string      `json:"timeSlot"`
	StartTime string      `json:"startTime" binding:"omitempty,clock"`
	EndTime   string      `json:"endTime" binding:"omitempty,clock"`
}

func (r EditBookingRequest) Slot() booking.SlotInput {
	return booking.SlotInput{TimeSlot: r.TimeSlot, Start: r.StartTime, End: r.EndTime}
}

type MyBookingsQuery struct {
	OwnerID string `form:"ownerId" binding:"required"`
}

type BookingResponse struct {
	ID         int64     `json:"id"`
	FacilityID int64     `json:"facilityId"`
	Facility   string    `json:"facility"`
	OwnerID    string    `json:"ownerId"`
	Date       string    `json:"date"`
	TimeSlot   string    `json:"timeSlot"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	owner := b.OwnerHogwartsID
	if owner == "" {
		owner = strconv.FormatInt(b.OwnerID, 10)
	}
	return BookingResponse{
		ID:         b.ID,
		FacilityID: b.FacilityID,
		Facility:   b.FacilityName,
		OwnerID:    owner,
		Date:       b.Date.Format(booking.DateLayout),
		TimeSlot:   b.Slot.String(),
		StartTime:  b.Slot.Start.Canonical(),
		EndTime:    b.Slot.End.Canonical(),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func NewBookingResponses(in []*booking.Booking) []BookingResponse {
	out := make([]BookingResponse, len(in))
	for i, b := range in {
		out[i] = NewBookingResponse(b)
	}
	return out
}

type StatRow struct {
	Facility string `json:"facility"`
	Count    int    `json:"count"`
}

type StatsResponse struct {
	OK   bool      `json:"ok"`
	Rows []StatRow `json:"rows"`
}

type CountResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}
