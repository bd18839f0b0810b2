// Package models defines the core domain models for GatherSync.
//
// # Scheduling Models
//
//   - Event: a gathering being scheduled for one calendar month (flexible)
//     or pinned to one date (fixed)
//   - Participant: a person invited to one event, with their per-day availability
//   - EventSnapshot: an immutable point-in-time copy of an Event
//   - GroupTemplate: a reusable list of participant names
//   - RecurringEventTemplate: a rule that generates one Event per month
//
// # Account Models
//
// User and PushToken exist on the server only. Devices never persist them
// outside of the session record.
//
// # Design Principles
//
//  1. Ids are opaque strings generated on the client and never reassigned
//  2. Relationships use id strings, never pointers
//  3. JSON keys are camelCase and shared by the device store and the RPC wire format
//  4. Availability keys are canonical "YYYY-MM-DD" strings
package models
