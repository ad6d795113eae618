package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

func TestRepairService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	repair, err := f.repairs.OpenRepair(ctx, service.OpenRepairInput{
		EquipmentID: sawID,
		StartDate:   date(t, "2024-02-01"),
		Description: "Blade guard cracked",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RepairStatusPlanned, repair.Status)
	assert.Equal(t, domain.EquipmentStatusUnderMaintenance, f.equipmentStatus(t, sawID))

	repair, err = f.repairs.UpdateRepairStatus(ctx, repair.ID, domain.RepairStatusInProgress, nil)
	require.NoError(t, err)
	assert.Nil(t, repair.EndDate)
	assert.Equal(t, domain.EquipmentStatusUnderMaintenance, f.equipmentStatus(t, sawID))

	end := date(t, "2024-02-05")
	repair, err = f.repairs.UpdateRepairStatus(ctx, repair.ID, domain.RepairStatusCompleted, &end)
	require.NoError(t, err)
	require.NotNil(t, repair.EndDate)
	assert.Equal(t, "2024-02-05", repair.EndDate.Format(domain.DateLayout))
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t, sawID))

	_, err = f.repairs.UpdateRepairStatus(ctx, repair.ID, domain.RepairStatusInProgress, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRepairService_RentalTakesPrecedenceOverRepair(t *testing.T) {
	f := newFixture(t)
	f.createRental(t, "2024-01-01", "2024-01-10", drillID)

	_, err := f.repairs.OpenRepair(context.Background(), service.OpenRepairInput{
		EquipmentID: drillID,
		StartDate:   date(t, "2024-01-11"),
		Description: "Scheduled service after return",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, drillID))
}

func TestRepairService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	negative := int64(-100)

	_, err := f.repairs.OpenRepair(ctx, service.OpenRepairInput{EquipmentID: sawID, StartDate: date(t, "2024-01-01")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.repairs.OpenRepair(ctx, service.OpenRepairInput{EquipmentID: sawID, StartDate: date(t, "2024-01-01"), Description: "x", CostCents: &negative})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.repairs.OpenRepair(ctx, service.OpenRepairInput{EquipmentID: sawID, StartDate: date(t, "2024-01-01"), Description: "x", Status: domain.RepairStatusCompleted})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.repairs.OpenRepair(ctx, service.OpenRepairInput{EquipmentID: 404, StartDate: date(t, "2024-01-01"), Description: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repair, err := f.repairs.OpenRepair(ctx, service.OpenRepairInput{EquipmentID: sawID, StartDate: date(t, "2024-03-01"), Description: "x"})
	require.NoError(t, err)
	early := date(t, "2024-02-01")
	_, err = f.repairs.UpdateRepairStatus(ctx, repair.ID, domain.RepairStatusCancelled, &early)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.repairs.UpdateRepairStatus(ctx, repair.ID, "Broken", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRepairService_DecommissionedEquipment(t *testing.T) {
	f := newFixture(t)
	_, err := f.equipment.Decommission(context.Background(), sawID)
	require.NoError(t, err)

	_, err = f.repairs.OpenRepair(context.Background(), service.OpenRepairInput{
		EquipmentID: sawID, StartDate: date(t, "2024-01-01"), Description: "x",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
