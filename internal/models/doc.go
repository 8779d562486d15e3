// Package models defines the domain models for esplit.
//
// # Ledger Models
//
//   - Group: a named ledger shared by a set of participants
//   - Participant: a person tracked in a group's ledger
//   - Transaction: an expense or a settlement (payment) between participants
//   - Activity: an entry in a group's change log, used for undo
//
// # Identifiers
//
// Participants are keyed by ParticipantID everywhere balances are computed.
// Transactions imported from spreadsheets carry numeric ids while ids created
// by the service are UUIDs, so TransactionID accepts both forms when decoding JSON.
//
// # Design Principles
//
// 1. **Plain data**: models carry no behavior beyond construction helpers
// 2. **Avoid circular references**: relationships use ID strings, not pointers
// 3. **Derived state is never stored**: balances are recomputed from transactions
package models
