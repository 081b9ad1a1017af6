// Package models defines the core domain models for the order ledger.
//
// # Models
//
//   - Order: a client job, the aggregate root owning expenses and photos
//   - Expense: one cost item against an order
//   - Photo: a stored image reference attached to an order
//   - User: in-memory session stub for the placeholder login
//
// # Design Principles
//
//  1. **Minor currency units**: all amounts are int64 cents, never floats,
//     so stored money has no rounding error
//  2. **Derived, not stored**: TotalExpenses, Profit, ProfitPercent and
//     HasCompleteData are computed from the aggregate on demand
//  3. **Canonical enum names**: statuses and categories are persisted as
//     their name strings; parsing an unknown name fails loudly because it
//     signals data corruption, not user error
//  4. **Avoid circular references**: children carry the parent's ID string
//     instead of a pointer back to the Order
package models
