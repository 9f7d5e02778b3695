package collection

import (
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ContractState is the lifecycle state of a sales contract
type ContractState string

const (
	ContractStateActive ContractState = "active"
	ContractStateClosed ContractState = "closed"
	ContractStateVoid   ContractState = "void"
)

// IsValid checks if the state is known
func (s ContractState) IsValid() bool {
	switch s {
	case ContractStateActive, ContractStateClosed, ContractStateVoid:
		return true
	}
	return false
}

// Contract is a sales contract whose amount is split into installments.
// Contracts are issued elsewhere; this subsystem only reads them.
type Contract struct {
	shared.BaseAggregateRoot
	ContractNumber   string               `json:"contract_number"`
	CustomerID       uuid.UUID            `json:"customer_id"`
	CustomerName     string               `json:"customer_name"`
	CustomerGroup    string               `json:"customer_group"`
	ActivityTag      string               `json:"activity_tag"`
	SalesOwnerID     uuid.UUID            `json:"sales_owner_id"`
	SalesOwnerName   string               `json:"sales_owner_name"`
	AccountOwnerID   *uuid.UUID           `json:"account_owner_id"`
	AccountOwnerName string               `json:"account_owner_name"`
	Currency         valueobject.Currency `json:"currency"`
	State            ContractState        `json:"state"`
	StatusOverride   string               `json:"status_override"`
}

// IsVoid returns true for voided contracts
func (c *Contract) IsVoid() bool {
	return c.State == ContractStateVoid
}

// VisibleTo reports whether a self-only caller owns this contract
func (c *Contract) VisibleTo(id shared.Identity) bool {
	if !id.SelfOnly {
		return true
	}
	if c.SalesOwnerID == id.UserID {
		return true
	}
	return c.AccountOwnerID != nil && *c.AccountOwnerID == id.UserID
}
