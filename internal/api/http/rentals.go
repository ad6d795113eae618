package http

import (
	"net/http"
	"strconv"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type createRentalRequest struct {
	ClientID   int64                     `json:"user_id"`
	EmployeeID int64                     `json:"employee_id"`
	StartDate  string                    `json:"start_date"`
	EndDate    string                    `json:"end_date"`
	ReturnDate *string                   `json:"return_date"`
	Items      []service.RentalItemInput `json:"items"`
}

func (req createRentalRequest) toInput() (service.CreateRentalInput, error) {
	start, err := domain.ParseDate("start_date", req.StartDate)
	if err != nil {
		return service.CreateRentalInput{}, err
	}
	end, err := domain.ParseDate("end_date", req.EndDate)
	if err != nil {
		return service.CreateRentalInput{}, err
	}
	ret, err := parseOptionalDate("return_date", req.ReturnDate)
	if err != nil {
		return service.CreateRentalInput{}, err
	}
	return service.CreateRentalInput{
		ClientID:   req.ClientID,
		EmployeeID: req.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		ReturnDate: ret,
		Items:      req.Items,
	}, nil
}

type listRentalsResponse struct {
	Rentals    []domain.Rental `json:"rentals"`
	TotalCount int32           `json:"total_count"`
}

type returnRentalRequest struct {
	ReturnDate string `json:"return_date"`
}

type recordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"payment_method"`
}

type recordDamageRequest struct {
	EquipmentID int64  `json:"equipment_id"`
	Description string `json:"description"`
}

func (h *handler) createRental(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.services.Rental.CreateRental(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (h *handler) getRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.services.Rental.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *handler) listRentals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.RentalFilter

	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, domain.NewValidation("user_id", "invalid id %q", raw))
			return
		}
		filter.ClientID = id
	}
	filter.Status = domain.RentalStatus(strings.TrimSpace(q.Get("status")))

	for name, dst := range map[string]*int32{"page": &filter.Page, "page_size": &filter.PageSize} {
		n, err := queryInt32(r, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if n != nil {
			*dst = *n
		}
	}

	rentals, total, err := h.services.Rental.ListRentals(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	writeJSON(w, http.StatusOK, listRentalsResponse{
		Rentals:    rentals,
		TotalCount: total,
	})
}

func (h *handler) returnRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req returnRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	returnDate, err := domain.ParseDate("return_date", req.ReturnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.services.Rental.ReturnRental(r.Context(), id, returnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *handler) cancelRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.services.Rental.CancelRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := h.services.Payment.RecordPayment(r.Context(), id, req.AmountCents, method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.services.Payment.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *handler) recordDamage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordDamageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	damage, err := h.services.Damage.RecordDamage(r.Context(), id, req.EquipmentID, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, damage)
}

func (h *handler) listDamages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	damages, err := h.services.Damage.ListDamages(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if damages == nil {
		damages = []domain.Damage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"damages": damages})
}
