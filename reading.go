package sensorhub

import (
	"time"

	"github.com/avelis/sensorhub/internal/store"
)

// Default threshold values for the alert policy.
const (
	// DefaultTemperatureThreshold is the temperature (°C) strictly above
	// which a reading fires an alert.
	DefaultTemperatureThreshold = 30.0

	// DefaultHumidityThreshold is the humidity (%) strictly below which
	// a reading fires an alert.
	DefaultHumidityThreshold = 20.0
)

// Reading is one stored temperature/humidity sample.
//
// Reading is immutable: the id and timestamp are assigned by the store at
// insertion and never change, and stored readings are never updated or
// deleted. Temperature and Humidity are pointers because producers may
// omit either field; absent values are stored and rendered as null.
type Reading struct {
	// ID is the store-assigned, monotonically increasing identifier.
	ID int64 `json:"id"`

	// Temperature in °C, or nil if the producer omitted it.
	Temperature *float64 `json:"temperature"`

	// Humidity in %, or nil if the producer omitted it.
	Humidity *float64 `json:"humidity"`

	// Timestamp is the insertion time (UTC), assigned by the store.
	Timestamp time.Time `json:"timestamp"`
}

// storeReadingToPublic converts the storage representation to the public
// API type handed to reading callbacks.
func storeReadingToPublic(r store.Reading) Reading {
	return Reading{
		ID:          r.ID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Timestamp:   r.Timestamp,
	}
}
