// Package model defines shared data types used across the live sync core.
//
// Conventions:
//   - IDs: uuid.UUID, server-assigned
//   - Timestamps: time.Time in UTC, server clock is authoritative
//   - Payloads: opaque json.RawMessage, interpreted by consumers only
package model
