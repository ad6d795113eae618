package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(rentalTransitions.WithLabelValues("Active", "Completed"))
	IncRentalTransition("Active", "Completed")
	assert.Equal(t, before+1, testutil.ToFloat64(rentalTransitions.WithLabelValues("Active", "Completed")))

	IncEquipmentStatusChange("Available")
	assert.GreaterOrEqual(t, testutil.ToFloat64(equipmentStatusChanges.WithLabelValues("Available")), 1.0)

	IncJobRun("mark-overdue-rentals", nil)
	IncJobRun("mark-overdue-rentals", errors.New("db down"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(jobRuns.WithLabelValues("mark-overdue-rentals", "failure")), 1.0)

	ObserveHTTP("/api/v1/rentals/{id}", 404, 15*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/rentals/{id}", "404")), 1.0)
}
