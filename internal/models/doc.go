// Package models defines the core domain models for the dues ledger.
//
// # Models
//
//   - Participant: a member of the association who owns zero or more parcels
//   - DueRecord: one monthly due, either for one parcel or for the whole account
//   - Slot: which parcel a due belongs to (PerParcel or WholeAccount)
//   - Period: a (month, year) pair
//   - HistoryEntry: one row of the append-only audit log
//   - User: a staff account allowed to operate the ledger
//
// # Whole-account records
//
// Dues created before per-parcel tracking existed carry no parcel number.
// They are represented by the WholeAccount slot and are displayed and totalled
// alongside PerParcel records. New allocations produce PerParcel records unless
// a WholeAccount slot is requested explicitly.
//
// # Relationships
//
// Models reference each other by ID (ParticipantID, RecordID) rather than by
// pointer, so they can be loaded and stored independently.
package models
