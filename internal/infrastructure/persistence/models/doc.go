// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - collection.go: Contracts, installments, receipts and the status override log
// - saved_view.go: Per-user saved dashboard filters
// - exchange_rate.go: The configured exchange rate table
package models
