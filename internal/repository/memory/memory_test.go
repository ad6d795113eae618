package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

func TestStore_WithTxRollsBackOnFailure(t *testing.T) {
	s := NewStore()
	eq := s.AddEquipment(domain.Equipment{InventoryNumber: "DRL-001"})
	s.FailOn("rental_items.insert", errors.New("disk full"))

	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		return tx.Rentals().Create(context.Background(), &domain.Rental{
			Status: domain.RentalStatusActive,
			Items:  []domain.RentalItem{{EquipmentID: eq}},
		})
	})

	assert.EqualError(t, err, "disk full")
	rentals, items := s.Counts()
	assert.Zero(t, rentals)
	assert.Zero(t, items)
}

func TestStore_WithTxCommits(t *testing.T) {
	s := NewStore()
	eq := s.AddEquipment(domain.Equipment{InventoryNumber: "DRL-001"})

	var id int64
	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		rt := &domain.Rental{Status: domain.RentalStatusActive, Items: []domain.RentalItem{{EquipmentID: eq}}}
		if err := tx.Rentals().Create(context.Background(), rt); err != nil {
			return err
		}
		id = rt.ID
		return nil
	})
	require.NoError(t, err)

	got, err := s.Rentals().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, got.Status)
	items, err := s.Rentals().ListItems(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_CommitFailureDiscardsChanges(t *testing.T) {
	s := NewStore()
	eq := s.AddEquipment(domain.Equipment{InventoryNumber: "SAW-9"})
	s.FailOn("commit", errors.New("connection reset"))

	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		return tx.Equipment().UpdateStatus(context.Background(), eq, domain.EquipmentStatusDecommissioned)
	})

	assert.Error(t, err)
	e, _ := s.Equipment().GetByID(context.Background(), eq)
	assert.Equal(t, domain.EquipmentStatusAvailable, e.Status)
}

func TestRentalRepo_GuardedUpdate(t *testing.T) {
	s := NewStore()
	id := s.AddRental(domain.Rental{Status: domain.RentalStatusCompleted})
	ret := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	err := s.Rentals().UpdateStatus(context.Background(), id, domain.RentalStatusActive, domain.RentalStatusCompleted, &ret)

	assert.ErrorIs(t, err, repository.ErrStatusChanged)
}

func TestEquipmentRepo_LoadFacts(t *testing.T) {
	s := NewStore()
	rented := s.AddEquipment(domain.Equipment{InventoryNumber: "A"})
	repairing := s.AddEquipment(domain.Equipment{InventoryNumber: "B"})
	returned := s.AddEquipment(domain.Equipment{InventoryNumber: "C", Status: domain.EquipmentStatusRented})
	s.AddRental(domain.Rental{Status: domain.RentalStatusOverdue, Items: []domain.RentalItem{{EquipmentID: rented}}})
	s.AddRental(domain.Rental{Status: domain.RentalStatusCompleted, Items: []domain.RentalItem{{EquipmentID: returned}}})
	s.AddRepair(domain.Repair{EquipmentID: repairing, Status: domain.RepairStatusPlanned})
	s.AddRepair(domain.Repair{EquipmentID: returned, Status: domain.RepairStatusCompleted})

	facts, err := s.Equipment().LoadFacts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, facts, 3)
	assert.True(t, facts[0].InLiveRental)
	assert.True(t, facts[1].InOpenRepair)
	assert.Equal(t, domain.EquipmentFacts{EquipmentID: returned, Current: domain.EquipmentStatusRented}, facts[2])
}
