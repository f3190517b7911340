// Package store provides the durable append-only log of sensor readings.
//
// This package is internal to sensorhub. It defines:
//
//   - [Reading]: One persisted temperature/humidity sample
//   - [Store]: Interface over the durable log (insert and read-back)
//   - [SQLite]: SQLite-backed implementation of Store
//
// Readings are immutable once inserted; there is no update or delete
// operation. Read-back queries always order by timestamp descending with
// id descending as the tiebreaker, so "latest" is well-defined even when
// timestamps collide.
//
// Users of the sensorhub library should not need to interact with this
// package directly. Storage is managed internally by SensorHub.
package store
