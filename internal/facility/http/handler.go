package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/response"
)

type Handler struct {
	service facility.Service
}

func NewHandler(service facility.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	facilities, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]FacilityResponse, len(facilities))
	for i, f := range facilities {
		items[i] = NewFacilityResponse(f, h.service.AliasesFor(f.ID))
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	f, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewFacilityResponse(f, h.service.AliasesFor(f.ID)))
}
