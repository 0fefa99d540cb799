package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/matreq/backend/internal/application/trade"
)

// LocationHandler handles ship-to location lookups
type LocationHandler struct {
	BaseHandler
	locations *tradeapp.LocationService
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(locations *tradeapp.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// LocationsResponse wraps the ship-to list
type LocationsResponse struct {
	Locations []tradeapp.LocationResponse `json:"locations"`
}

// ShipTo godoc
// @Summary      Ship-to locations of a sold-to party
// @Tags         locations
// @Produce      json
// @Security     SessionToken
// @Param        sold_to query string true "Sold-to party"
// @Success      200 {object} dto.Response{data=LocationsResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Router       /locations [get]
func (h *LocationHandler) ShipTo(c *gin.Context) {
	conn, ok := h.connection(c)
	if !ok {
		return
	}

	locations, err := h.locations.ShipToLocations(c.Request.Context(), conn, c.Query("sold_to"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if locations == nil {
		locations = []tradeapp.LocationResponse{}
	}

	h.Success(c, LocationsResponse{Locations: locations})
}
