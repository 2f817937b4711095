package middleware

import (
	"github.com/google/uuid"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// ValidateMeetingID validates a meeting id path parameter.
func ValidateMeetingID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("id", "invalid meeting ID format")
	}
	return nil
}

// ValidateAgentID validates an agent id path parameter.
func ValidateAgentID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("id", "invalid agent ID format")
	}
	return nil
}

// ValidateAgendaItemID validates an agenda item id path parameter.
func ValidateAgendaItemID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("item_id", "invalid agenda item ID format")
	}
	return nil
}
