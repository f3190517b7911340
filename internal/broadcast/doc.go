// Package broadcast implements the WebSocket fan-out hub for live
// reading updates.
//
// The hub maintains the set of connected subscribers and pushes each newly
// ingested reading to all of them. Delivery is best effort: per-subscriber
// buffered queues with dedicated write goroutines preserve publish order
// for each subscriber, while a full queue or broken transport results in a
// silent skip rather than backpressure on the ingestion path.
//
// Users of the sensorhub library should not need to interact with this
// package directly; the server package upgrades connections and hands them
// to the hub.
package broadcast
