package http

import (
	"net/http"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type openRepairRequest struct {
	EquipmentID int64  `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	Description string `json:"description"`
	CostCents   *int64 `json:"cost_cents"`
	Status      string `json:"status"`
}

type repairStatusRequest struct {
	Status  string  `json:"status"`
	EndDate *string `json:"end_date"`
}

func (h *handler) listEquipment(w http.ResponseWriter, r *http.Request) {
	var status domain.EquipmentStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s, err := domain.ParseEquipmentStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = s
	}
	units, err := h.services.Equipment.ListEquipment(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if units == nil {
		units = []domain.Equipment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"equipment": units})
}

func (h *handler) getEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unit, err := h.services.Equipment.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *handler) decommissionEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unit, err := h.services.Equipment.Decommission(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *handler) reconcileEquipment(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.Equipment.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) openRepair(w http.ResponseWriter, r *http.Request) {
	var req openRepairRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := domain.ParseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := service.OpenRepairInput{
		EquipmentID: req.EquipmentID,
		StartDate:   start,
		Description: req.Description,
		CostCents:   req.CostCents,
	}
	if req.Status != "" {
		if in.Status, err = domain.ParseRepairStatus(req.Status); err != nil {
			writeError(w, r, err)
			return
		}
	}
	repair, err := h.services.Repair.OpenRepair(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, repair)
}

func (h *handler) updateRepairStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req repairStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := domain.ParseRepairStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var endDate *time.Time
	if endDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		writeError(w, r, err)
		return
	}
	repair, err := h.services.Repair.UpdateRepairStatus(r.Context(), id, status, endDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}
