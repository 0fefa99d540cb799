package trade

import (
	"context"
	"strings"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
)

// LocationService lists ship-to locations of a sold-to party
type LocationService struct{}

// NewLocationService creates a new LocationService
func NewLocationService() *LocationService {
	return &LocationService{}
}

// ShipToLocations returns the ship-to locations registered for soldTo
func (s *LocationService) ShipToLocations(ctx context.Context, conn integration.Connection, soldTo string) ([]LocationResponse, error) {
	soldTo = strings.TrimSpace(soldTo)
	if soldTo == "" {
		return nil, shared.NewDomainError("INVALID_SOLD_TO", "sold_to is required")
	}

	locations, err := conn.LookupShipToLocations(ctx, soldTo)
	if err != nil {
		return nil, err
	}

	out := make([]LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, LocationResponse{Partner: l.Partner, Name: l.Name, City: l.City})
	}
	return out, nil
}
