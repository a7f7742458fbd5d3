package appliance

import (
	"time"

	"github.com/google/uuid"
)

// CostPerKWh is the flat electricity rate used for cost estimates,
// in currency units per kilowatt-hour.
const CostPerKWh = 0.16

// Handle is an opaque storage token addressing one persisted record for
// deletion. Its contents are backend-specific and must not be parsed.
type Handle string

// Draft is a fully-enriched identification that has not been persisted yet.
// It is a plain value: copy it freely, never mutate it after construction.
type Draft struct {
	Name             string
	Category         string
	EstimatedWattage float64
	Confidence       float64
	CapturedAt       time.Time
	ImageData        []byte
}

// Record is a persisted identification snapshot. Values returned by a store
// are independent copies and stay valid after subsequent store operations.
type Record struct {
	ID               uuid.UUID
	Handle           Handle
	Name             string
	Category         string
	EstimatedWattage float64
	Confidence       float64
	CapturedAt       time.Time
	ImageData        []byte
}

// DailyKWh is the estimated daily energy use assuming 24-hour operation.
// The 24-hour assumption is deliberate and independent of the reference
// profile's usage hours.
func (r Record) DailyKWh() float64 {
	return r.EstimatedWattage * 24 / 1000
}

// MonthlyCost is the estimated monthly electricity cost at CostPerKWh.
func (r Record) MonthlyCost() float64 {
	return r.DailyKWh() * 30 * CostPerKWh
}
