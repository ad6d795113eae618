package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

func (f *fixture) createRental(t *testing.T, start, end string, equipment ...int64) *domain.Rental {
	t.Helper()
	in := service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, start),
		EndDate:    date(t, end),
	}
	for _, id := range equipment {
		in.Items = append(in.Items, service.RentalItemInput{EquipmentID: id})
	}
	rental, err := f.rentals.CreateRental(context.Background(), in)
	require.NoError(t, err)
	return rental
}

func TestRentalService_CreateReturnScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rental, err := f.rentals.CreateRental(ctx, service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-01-01"),
		EndDate:    date(t, "2024-01-10"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID, DamageFeeCents: 0}},
	})
	require.NoError(t, err)
	assert.NotZero(t, rental.ID)
	assert.Equal(t, domain.RentalStatusActive, rental.Status)
	require.Len(t, rental.Items, 1)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, drillID))

	returned, err := f.rentals.ReturnRental(ctx, rental.ID, date(t, "2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCompleted, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, "2024-01-08", returned.ReturnDate.Format(domain.DateLayout))
	assert.Nil(t, returned.TotalCostCents)
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t, drillID))

	_, err = f.rentals.ReturnRental(ctx, rental.ID, date(t, "2024-01-09"))
	var invalid *domain.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, string(domain.RentalStatusCompleted), invalid.Status)
}

func TestRentalService_CreateRental_EndBeforeStart(t *testing.T) {
	f := newFixture(t)

	_, err := f.rentals.CreateRental(context.Background(), service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-02-01"),
		EndDate:    date(t, "2024-01-20"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID}},
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	rentals, items := f.store.Counts()
	assert.Zero(t, rentals)
	assert.Zero(t, items)
}

func TestRentalService_CreateRental_Validation(t *testing.T) {
	f := newFixture(t)
	ret := date(t, "2023-12-31")

	tests := []struct {
		name  string
		in    service.CreateRentalInput
		field string
	}{
		{"NoItems", service.CreateRentalInput{}, "items"},
		{"NegativeFee", service.CreateRentalInput{Items: []service.RentalItemInput{{EquipmentID: drillID, DamageFeeCents: -1}}}, "items"},
		{"ReturnBeforeStart", service.CreateRentalInput{ReturnDate: &ret, Items: []service.RentalItemInput{{EquipmentID: drillID}}}, "return_date"},
		{"MissingClient", service.CreateRentalInput{ClientID: -1, Items: []service.RentalItemInput{{EquipmentID: drillID}}}, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			if in.ClientID == 0 {
				in.ClientID = clientID
			}
			in.EmployeeID = employeeID
			in.StartDate = date(t, "2024-01-01")
			in.EndDate = date(t, "2024-01-10")

			_, err := f.rentals.CreateRental(context.Background(), in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRentalService_CreateRental_ItemCountMatchesInput(t *testing.T) {
	f := newFixture(t)

	rental := f.createRental(t, "2024-03-01", "2024-03-05", drillID, sawID)

	got, err := f.rentals.GetRental(context.Background(), rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, got.Status)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		require.NotNil(t, it.Equipment)
		assert.Equal(t, it.EquipmentID, it.Equipment.ID)
		assert.Equal(t, domain.EquipmentStatusRented, it.Equipment.Status)
	}
}

func TestRentalService_CreateRental_AllOrNothing(t *testing.T) {
	for _, op := range []string{"rentals.insert", "rental_items.insert", "audit_log.insert", "commit"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			f.store.FailOn(op, errors.New("injected failure"))

			_, err := f.rentals.CreateRental(context.Background(), service.CreateRentalInput{
				ClientID:   clientID,
				EmployeeID: employeeID,
				StartDate:  date(t, "2024-01-01"),
				EndDate:    date(t, "2024-01-10"),
				Items:      []service.RentalItemInput{{EquipmentID: drillID}, {EquipmentID: sawID}},
			})

			assert.Error(t, err)
			rentals, items := f.store.Counts()
			assert.Zero(t, rentals)
			assert.Zero(t, items)
			assert.Empty(t, f.store.AuditEntries())
			assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t, drillID))
		})
	}
}

func TestRentalService_CreateRental_MissingReferences(t *testing.T) {
	f := newFixture(t)
	base := service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-01-01"),
		EndDate:    date(t, "2024-01-10"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID}},
	}

	missingClient := base
	missingClient.ClientID = 77
	_, err := f.rentals.CreateRental(context.Background(), missingClient)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	missingEquipment := base
	missingEquipment.Items = []service.RentalItemInput{{EquipmentID: 404}}
	_, err = f.rentals.CreateRental(context.Background(), missingEquipment)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "equipment", nf.Entity)
}

func TestRentalService_CreateRental_EquipmentInLiveRental(t *testing.T) {
	f := newFixture(t)
	f.createRental(t, "2024-01-01", "2024-01-10", drillID)

	_, err := f.rentals.CreateRental(context.Background(), service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-01-02"),
		EndDate:    date(t, "2024-01-04"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID}},
	})

	var invalid *domain.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, string(domain.EquipmentStatusRented), invalid.Status)
	rentals, _ := f.store.Counts()
	assert.Equal(t, 1, rentals)
}

func TestRentalService_CreateRental_RepairAndDecommissionDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repairs.OpenRepair(ctx, service.OpenRepairInput{
		EquipmentID: sawID,
		StartDate:   date(t, "2024-03-01"),
		Description: "Planned blade change",
	})
	require.NoError(t, err)
	require.Equal(t, domain.EquipmentStatusUnderMaintenance, f.equipmentStatus(t, sawID))

	rental := f.createRental(t, "2024-02-01", "2024-02-10", sawID)
	assert.Equal(t, domain.RentalStatusActive, rental.Status)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, sawID))

	_, err = f.equipment.Decommission(ctx, drillID)
	require.NoError(t, err)
	rental = f.createRental(t, "2024-02-01", "2024-02-10", drillID)
	assert.Equal(t, domain.RentalStatusActive, rental.Status)
	assert.Equal(t, domain.EquipmentStatusDecommissioned, f.equipmentStatus(t, drillID))
}

func TestRentalService_CreateRental_RepeatedEquipmentKeepsEveryItem(t *testing.T) {
	f := newFixture(t)

	rental := f.createRental(t, "2024-01-01", "2024-01-10", drillID, drillID)

	assert.Equal(t, domain.RentalStatusActive, rental.Status)
	assert.Len(t, rental.Items, 2)
	_, items := f.store.Counts()
	assert.Equal(t, 2, items)
}

func TestRentalService_ConcurrentCreatesRentUnitOnce(t *testing.T) {
	f := newFixture(t)
	in := service.CreateRentalInput{
		ClientID:   clientID,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-01-01"),
		EndDate:    date(t, "2024-01-10"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID}},
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.rentals.CreateRental(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, invalid)
}

func TestRentalService_ReturnRental_BeforeStartLeavesRentalUnchanged(t *testing.T) {
	f := newFixture(t)
	rental := f.createRental(t, "2024-01-05", "2024-01-10", drillID)

	_, err := f.rentals.ReturnRental(context.Background(), rental.ID, date(t, "2024-01-04"))

	assert.ErrorIs(t, err, domain.ErrValidation)
	got, err := f.rentals.GetRental(context.Background(), rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, got.Status)
	assert.Nil(t, got.ReturnDate)
}

func TestRentalService_ReturnRental_FromOverdue(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddRental(domain.Rental{
		ClientID: clientID, EmployeeID: employeeID,
		StartDate: date(t, "2024-01-01"), EndDate: date(t, "2024-01-03"),
		Status: domain.RentalStatusOverdue,
		Items:  []domain.RentalItem{{EquipmentID: drillID}},
	})

	got, err := f.rentals.ReturnRental(context.Background(), id, date(t, "2024-01-20"))

	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCompleted, got.Status)
}

func TestRentalService_CancelRental(t *testing.T) {
	ctx := context.Background()

	for _, from := range []domain.RentalStatus{domain.RentalStatusActive, domain.RentalStatusOverdue} {
		t.Run(string(from), func(t *testing.T) {
			f := newFixture(t)
			id := f.store.AddRental(domain.Rental{
				ClientID: clientID, EmployeeID: employeeID,
				StartDate: date(t, "2024-01-01"), EndDate: date(t, "2024-01-03"),
				Status: from,
				Items:  []domain.RentalItem{{EquipmentID: drillID}},
			})

			got, err := f.rentals.CancelRental(ctx, id)

			require.NoError(t, err)
			assert.Equal(t, domain.RentalStatusCancelled, got.Status)
			assert.Nil(t, got.ReturnDate)
			assert.Len(t, got.Items, 1)
		})
	}

	for _, from := range []domain.RentalStatus{domain.RentalStatusCompleted, domain.RentalStatusCancelled} {
		t.Run(string(from), func(t *testing.T) {
			f := newFixture(t)
			id := f.store.AddRental(domain.Rental{ClientID: clientID, Status: from})

			_, err := f.rentals.CancelRental(ctx, id)

			assert.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestRentalService_CancelRental_ReleasesEquipment(t *testing.T) {
	f := newFixture(t)
	rental := f.createRental(t, "2024-01-01", "2024-01-10", drillID)
	require.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, drillID))

	_, err := f.rentals.CancelRental(context.Background(), rental.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t, drillID))
}

func TestRentalService_GetRental_IncludesClientPersonalData(t *testing.T) {
	f := newFixture(t)
	f.store.AddUser(domain.User{
		ID:    3,
		Name:  "Anna Volkova",
		Email: "anna@example.com",
		Role:  domain.UserRoleClient,
		PersonalData: &domain.UserPersonalData{
			UserID:  3,
			Country: "Estonia",
			City:    "Tallinn",
			Address: "Narva mnt 5",
		},
	})
	withData, err := f.rentals.CreateRental(context.Background(), service.CreateRentalInput{
		ClientID:   3,
		EmployeeID: employeeID,
		StartDate:  date(t, "2024-01-01"),
		EndDate:    date(t, "2024-01-10"),
		Items:      []service.RentalItemInput{{EquipmentID: drillID}},
	})
	require.NoError(t, err)
	withoutData := f.createRental(t, "2024-01-01", "2024-01-10", sawID)

	got, err := f.rentals.GetRental(context.Background(), withData.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClientData)
	assert.Equal(t, "Tallinn", got.ClientData.City)

	got, err = f.rentals.GetRental(context.Background(), withoutData.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClientData)
}

func TestRentalService_GetRental_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.rentals.GetRental(context.Background(), 999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.rentals.ReturnRental(context.Background(), 999, date(t, "2024-01-01"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.rentals.CancelRental(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRentalService_ConcurrentReturnsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	rental := f.createRental(t, "2024-01-01", "2024-01-10", drillID)
	returnDate := date(t, "2024-01-08")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.rentals.ReturnRental(context.Background(), rental.ID, returnDate)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, invalid)
}

func TestRentalService_MarkOverdue(t *testing.T) {
	f := newFixture(t)
	late := f.createRental(t, "2024-01-01", "2024-01-05", drillID)
	onTime := f.createRental(t, "2024-01-01", "2024-01-10", sawID)
	asOf := time.Date(2024, 1, 7, 15, 30, 0, 0, time.UTC)

	marked, err := f.rentals.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, []int64{late.ID}, marked)

	got, err := f.rentals.GetRental(context.Background(), late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusOverdue, got.Status)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, drillID))

	other, err := f.rentals.GetRental(context.Background(), onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, other.Status)

	again, err := f.rentals.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRentalService_ListRentals(t *testing.T) {
	f := newFixture(t)
	first := f.createRental(t, "2024-01-01", "2024-01-05", drillID)
	f.createRental(t, "2024-01-01", "2024-01-05", sawID)
	_, err := f.rentals.CancelRental(context.Background(), first.ID)
	require.NoError(t, err)

	all, total, err := f.rentals.ListRentals(context.Background(), domain.RentalFilter{ClientID: clientID})
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Len(t, all, 2)

	cancelled, total, err := f.rentals.ListRentals(context.Background(), domain.RentalFilter{Status: domain.RentalStatusCancelled, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, _, err = f.rentals.ListRentals(context.Background(), domain.RentalFilter{Status: "Lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRentalService_ListRentals_PageBeyondEnd(t *testing.T) {
	f := newFixture(t)
	f.createRental(t, "2024-01-01", "2024-01-05", drillID)

	for _, page := range []int32{2, 30000000, math.MaxInt32} {
		rentals, total, err := f.rentals.ListRentals(context.Background(), domain.RentalFilter{Page: page, PageSize: 100})
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Empty(t, rentals)
	}
}

func TestRentalService_WritesAuditTrail(t *testing.T) {
	f := newFixture(t)
	rental := f.createRental(t, "2024-01-01", "2024-01-10", drillID)
	_, err := f.rentals.ReturnRental(context.Background(), rental.ID, date(t, "2024-01-02"))
	require.NoError(t, err)

	var ops []domain.AuditOperation
	for _, e := range f.store.AuditEntries() {
		if e.TableName == "rentals" && e.RecordID == rental.ID {
			ops = append(ops, e.Operation)
		}
	}
	assert.Equal(t, []domain.AuditOperation{domain.AuditInsert, domain.AuditUpdate}, ops)
}
