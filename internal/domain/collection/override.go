package collection

import (
	"strings"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityType names what a status override targets
type EntityType string

const (
	EntityTypeContract    EntityType = "contract"
	EntityTypeInstallment EntityType = "installment"
)

// StatusOverrideRequest is an operator's request to set or clear an override
type StatusOverrideRequest struct {
	EntityType EntityType
	EntityID   uuid.UUID
	NewStatus  string
	Reason     string
	ActorID    uuid.UUID
}

// Validate enforces the override rules. Contract statuses cannot be changed
// this way; deleting the contract is the only terminal action for it.
func (r StatusOverrideRequest) Validate() error {
	switch r.EntityType {
	case EntityTypeContract:
		return shared.NewValidationError("CONTRACT_STATUS_IMMUTABLE",
			"Contract status cannot be changed manually")
	case EntityTypeInstallment:
	default:
		return shared.NewValidationError("INVALID_ENTITY_TYPE",
			"Entity type must be contract or installment")
	}
	if r.EntityID == uuid.Nil {
		return shared.NewValidationError("INVALID_ENTITY_ID", "Entity id is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "A reason is required to change a status")
	}
	if len(strings.TrimSpace(r.NewStatus)) > 50 {
		return shared.NewValidationError("INVALID_STATUS", "Status must be at most 50 characters")
	}
	return nil
}

// StatusOverrideLog is an append-only record of an override change
type StatusOverrideLog struct {
	shared.BaseEntity
	EntityType       EntityType `json:"entity_type"`
	EntityID         uuid.UUID  `json:"entity_id"`
	PreviousOverride string     `json:"previous_override"`
	NewOverride      string     `json:"new_override"`
	Reason           string     `json:"reason"`
	ActorID          uuid.UUID  `json:"actor_id"`
}

// NewStatusOverrideLog records a change from previous to next
func NewStatusOverrideLog(entityType EntityType, entityID uuid.UUID, previous, next, reason string, actor uuid.UUID) *StatusOverrideLog {
	return &StatusOverrideLog{
		BaseEntity:       shared.NewBaseEntity(),
		EntityType:       entityType,
		EntityID:         entityID,
		PreviousOverride: strings.TrimSpace(previous),
		NewOverride:      strings.TrimSpace(next),
		Reason:           strings.TrimSpace(reason),
		ActorID:          actor,
	}
}
