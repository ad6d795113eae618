package service_test

import (
	"context"
	"testing"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/events"
	"equiprent-backend/internal/repository/memory"
	"equiprent-backend/internal/service"
)

type fixture struct {
	store     *memory.Store
	bus       *events.Bus
	rentals   service.RentalService
	equipment service.EquipmentService
	repairs   service.RepairService
	payments  service.PaymentService
	damages   service.DamageService
}

const (
	clientID   int64 = 1
	employeeID int64 = 2
	drillID    int64 = 5
	sawID      int64 = 6
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	bus := events.NewBus()
	f := &fixture{
		store:     store,
		bus:       bus,
		rentals:   service.NewRentalService(store, bus),
		equipment: service.NewEquipmentService(store),
		repairs:   service.NewRepairService(store, bus),
		payments:  service.NewPaymentService(store),
		damages:   service.NewDamageService(store),
	}
	f.equipment.Subscribe(bus)

	store.AddUser(domain.User{ID: clientID, Name: "Ivan Petrov", Email: "ivan@example.com", Role: domain.UserRoleClient})
	store.AddUser(domain.User{ID: employeeID, Name: "Olga Smirnova", Email: "olga@example.com", Role: domain.UserRoleSeller})
	store.AddEquipment(domain.Equipment{ID: drillID, CategoryID: 1, ModelID: 1, InventoryNumber: "INV-0005"})
	store.AddEquipment(domain.Equipment{ID: sawID, CategoryID: 1, ModelID: 2, InventoryNumber: "INV-0006"})
	return f
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate("date", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func (f *fixture) equipmentStatus(t *testing.T, id int64) domain.EquipmentStatus {
	t.Helper()
	e, err := f.store.Equipment().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get equipment %d: %v", id, err)
	}
	return e.Status
}
