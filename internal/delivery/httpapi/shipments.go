package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slabmarket/settlement-service/internal/domain"
	shipmentdto "github.com/slabmarket/settlement-service/internal/usecase/dto/shipment"
)

type createShipmentRequest struct {
	Direction      string `json:"direction"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	shipment, err := h.Shipments.Create(r.Context(), &shipmentdto.CreateShipmentInput{
		TradeID:        mux.Vars(r)["tradeId"],
		Direction:      domain.ShipmentDirection(req.Direction),
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShipmentView(shipment))
}

type updateShipmentRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req updateShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	shipment, err := h.Shipments.UpdateStatus(r.Context(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: mux.Vars(r)["shipmentId"],
		NextStatus: domain.ShipmentStatus(req.Status),
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShipmentView(shipment))
}

func (h *Handler) ListShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.Shipments.ListByTradeID(mux.Vars(r)["tradeId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shipments": toShipmentViews(shipments),
	})
}
