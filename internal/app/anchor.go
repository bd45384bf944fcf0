package app

import (
	"encoding/json"

	"blokus/internal/domain"
)

type anchorWire struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// ParseAnchor reads the anchor of a placement request. A missing anchor, a missing
// coordinate or a coordinate that is not an integer is rejected as invalid_position.
func ParseAnchor(raw json.RawMessage) (*domain.Cell, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, domain.Reject(domain.ReasonInvalidPosition, "anchor is required")
	}
	var w anchorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, domain.Reject(domain.ReasonInvalidPosition, "anchor must hold integer x and y: %v", err)
	}
	if w.X == nil || w.Y == nil {
		return nil, domain.Reject(domain.ReasonInvalidPosition, "anchor needs both x and y")
	}
	return &domain.Cell{X: *w.X, Y: *w.Y}, nil
}
