package pricing

import (
	"fmt"
	"math"
)

const (
	// ContainerCapacity is the usable volume of one shipping container in cubic feet.
	ContainerCapacity = 205.0

	efficientThreshold = 90.0
)

// CapacityStatus is the advisory state of a shipment.
type CapacityStatus string

const (
	CapacityWarning   CapacityStatus = "below-capacity-warning"
	CapacityEfficient CapacityStatus = "efficient"
)

// CapacityAdvice describes how well a quote fills its containers. It never
// blocks a quote.
type CapacityAdvice struct {
	TotalCubicFeet float64
	Percentage     float64
	Containers     int
	Status         CapacityStatus
	Note           string
}

// AdviseCapacity evaluates total cubic feet against ContainerCapacity.
func AdviseCapacity(totalCubicFeet float64) CapacityAdvice {
	if totalCubicFeet < 0 {
		totalCubicFeet = 0
	}
	pct := totalCubicFeet * 100 / ContainerCapacity
	advice := CapacityAdvice{
		TotalCubicFeet: totalCubicFeet,
		Percentage:     pct,
		Containers:     int(math.Ceil(totalCubicFeet / ContainerCapacity)),
		Status:         CapacityEfficient,
	}
	if pct < efficientThreshold {
		advice.Status = CapacityWarning
	}
	advice.Note = capacityNote(pct, advice.Containers)
	return advice
}

func capacityNote(pct float64, containers int) string {
	switch {
	case pct < efficientThreshold:
		return fmt.Sprintf("Container utilization is at %.1f%%, below the recommended 90%%. "+
			"Consider adding items to use the container efficiently.", pct)
	case pct <= 95:
		return fmt.Sprintf("Container utilization is at %.1f%%. "+
			"Adding a few more items will achieve optimal shipping efficiency.", pct)
	case pct <= 100:
		return "This order efficiently utilizes one container (205-210 cubic ft)."
	default:
		return fmt.Sprintf("This order requires %d shipping containers.", containers)
	}
}
