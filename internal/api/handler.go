// Package api exposes the registry service over HTTP. Caller identity is
// supplied by the host through the X-Caller header; payment amounts travel in
// request bodies.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shopcore/internal/core"
	"shopcore/internal/eventlog"
	"shopcore/pkg/domain"
)

// callerHeader carries the host-supplied caller identity.
const callerHeader = "X-Caller"

// Handler provides HTTP access to the registry service and event trail.
type Handler struct {
	Service *core.Service
	Events  *eventlog.Log
}

// NewHandler constructs a registry HTTP handler.
func NewHandler(svc *core.Service, events *eventlog.Log) *Handler {
	return &Handler{Service: svc, Events: events}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "registry service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/items":
		h.handleItems(w, r)
	case path == "/api/v1/items/available" && r.Method == http.MethodGet:
		h.handleAvailable(w, r)
	case strings.HasPrefix(path, "/api/v1/items/"):
		h.handleItem(w, r, strings.TrimPrefix(path, "/api/v1/items/"))
	case path == "/api/v1/initialize" && r.Method == http.MethodPost:
		h.handleInitialize(w, r)
	case path == "/api/v1/owner" && r.Method == http.MethodGet:
		h.handleOwner(w, r)
	case path == "/api/v1/owner/transfer" && r.Method == http.MethodPost:
		h.handleTransferOwnership(w, r)
	case path == "/api/v1/emergency-stop" && r.Method == http.MethodPost:
		h.handleEmergencyStop(w, r)
	case path == "/api/v1/purchases" && r.Method == http.MethodGet:
		h.handleUserPurchases(w, r)
	case path == "/api/v1/events" && r.Method == http.MethodGet:
		h.handleEvents(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := h.Service.ListItems(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req struct {
			Name            string `json:"name"`
			UnitPrice       uint64 `json:"unit_price"`
			InitialQuantity uint64 `json:"initial_quantity"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, _, err := h.Service.AddItem(r.Context(), caller(r), req.Name, req.UnitPrice, req.InitialQuantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	available, err := h.Service.GetAvailableItems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid item id %q", segments[0]))
		return
	}

	if len(segments) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		item, err := h.Service.GetItem(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
		return
	}
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}

	action := segments[1]
	switch {
	case r.Method == http.MethodGet && action == "stock":
		stock, err := h.Service.GetStock(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "stock": stock})
	case r.Method == http.MethodGet && action == "sold-out":
		soldOut, err := h.Service.IsSoldOut(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "sold_out": soldOut})
	case r.Method == http.MethodPost:
		h.handleItemAction(w, r, id, action)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleItemAction(w http.ResponseWriter, r *http.Request, id uint64, action string) {
	ctx := r.Context()
	who := caller(r)
	switch action {
	case "lock":
		item, _, err := h.Service.LockItem(ctx, who, id)
		respondItem(w, item, err)
	case "unlock":
		item, _, err := h.Service.UnlockItem(ctx, who, id)
		respondItem(w, item, err)
	case "restock":
		var req struct {
			Added uint64 `json:"added"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, _, err := h.Service.RestockItem(ctx, who, id, req.Added)
		respondItem(w, item, err)
	case "price":
		var req struct {
			NewPrice uint64 `json:"new_price"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, _, err := h.Service.UpdateItemPrice(ctx, who, id, req.NewPrice)
		respondItem(w, item, err)
	case "status":
		var req struct {
			IsActive bool `json:"is_active"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, _, err := h.Service.ChangeItemStatus(ctx, who, id, req.IsActive)
		respondItem(w, item, err)
	case "buy":
		var req struct {
			Quantity uint64 `json:"quantity"`
			Paid     uint64 `json:"paid"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		receipt, _, err := h.Service.Buy(ctx, who, id, req.Quantity, req.Paid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt})
	case "purchase":
		var req struct {
			Amount uint64 `json:"amount"`
			Paid   uint64 `json:"paid"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		receipt, _, err := h.Service.Purchase(ctx, who, id, req.Amount, req.Paid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	who := caller(r)
	if _, err := h.Service.Initialize(r.Context(), who); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner": who})
}

func (h *Handler) handleOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := h.Service.OwnerAddress(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner": owner})
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOwner domain.Address `json:"new_owner"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.Service.TransferOwnership(r.Context(), caller(r), req.NewOwner); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner": req.NewOwner})
}

func (h *Handler) handleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.EmergencyStop(r.Context(), caller(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
}

func (h *Handler) handleUserPurchases(w http.ResponseWriter, r *http.Request) {
	user := domain.Address(r.URL.Query().Get("user"))
	itemRaw := r.URL.Query().Get("item")
	id, err := strconv.ParseUint(itemRaw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid item id %q", itemRaw))
		return
	}
	total, err := h.Service.GetUserPurchases(r.Context(), user, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "item": id, "purchased": total})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": h.Events.Recent(limit)})
}

func caller(r *http.Request) domain.Address {
	return domain.Address(r.Header.Get(callerHeader))
}

func respondItem(w http.ResponseWriter, item domain.Item, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	var ruleErr domain.RuleViolationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientPayment):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrItemLocked):
		writeError(w, http.StatusLocked, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrItemUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ruleErr):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
