package http

import "github.com/hogwarts/facility-booking/internal/facility"

type FacilityResponse struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func NewFacilityResponse(f *facility.Facility, aliases []string) FacilityResponse {
	if aliases == nil {
		aliases = []string{}
	}
	return FacilityResponse{ID: f.ID, Name: f.Name, Aliases: aliases}
}

type CreateFacilityRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}
