package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopcore/internal/core"
	"shopcore/internal/eventlog"
)

const testOwner = "0xowner"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	trail := eventlog.New()
	t.Cleanup(trail.Close)
	if !core.AttachEventSink(svc.Store(), trail) {
		t.Fatal("store did not accept event sink")
	}
	return NewHandler(svc, trail)
}

func do(t *testing.T, h *Handler, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		req.Header.Set("X-Caller", caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func initAndAdd(t *testing.T, h *Handler) {
	t.Helper()
	if rec := do(t, h, http.MethodPost, "/api/v1/initialize", testOwner, ""); rec.Code != http.StatusOK {
		t.Fatalf("initialize: %d %s", rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/api/v1/items", testOwner,
		`{"name":"widget","unit_price":2,"initial_quantity":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAddAndGetItem(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/items/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get item: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Item struct {
			ID        uint64 `json:"id"`
			Name      string `json:"name"`
			UnitPrice uint64 `json:"unit_price"`
			Stock     uint64 `json:"stock"`
			Quantity  uint64 `json:"quantity"`
		} `json:"item"`
	}
	decode(t, rec, &resp)
	if resp.Item.ID != 1 || resp.Item.Name != "widget" || resp.Item.Stock != 10 || resp.Item.Quantity != 10 {
		t.Fatalf("item = %+v", resp.Item)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	cases := []struct {
		name   string
		method string
		path   string
		caller string
		body   string
		status int
	}{
		{"non-owner add", http.MethodPost, "/api/v1/items", "0xmallory",
			`{"name":"x","unit_price":1,"initial_quantity":1}`, http.StatusForbidden},
		{"missing item", http.MethodGet, "/api/v1/items/99", "", "", http.StatusNotFound},
		{"zero price", http.MethodPost, "/api/v1/items", testOwner,
			`{"name":"x","unit_price":0,"initial_quantity":1}`, http.StatusBadRequest},
		{"underpaid purchase", http.MethodPost, "/api/v1/items/1/purchase", "0xbuyer",
			`{"amount":3,"paid":1}`, http.StatusPaymentRequired},
		{"excessive purchase", http.MethodPost, "/api/v1/items/1/purchase", "0xbuyer",
			`{"amount":100,"paid":500}`, http.StatusConflict},
		{"bad id", http.MethodGet, "/api/v1/items/abc", "", "", http.StatusBadRequest},
		{"bad body", http.MethodPost, "/api/v1/items", testOwner, `{"name":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.caller, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestLockedItemStatus(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	if rec := do(t, h, http.MethodPost, "/api/v1/items/1/lock", testOwner, ""); rec.Code != http.StatusOK {
		t.Fatalf("lock: %d %s", rec.Code, rec.Body.String())
	}

	// The purchase workflow refuses locked items; the legacy buy path does not.
	rec := do(t, h, http.MethodPost, "/api/v1/items/1/purchase", "0xbuyer", `{"amount":1,"paid":2}`)
	if rec.Code != http.StatusLocked {
		t.Fatalf("purchase of locked item: %d, want 423", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/items/1/buy", "0xbuyer", `{"quantity":1,"paid":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy of locked item: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPurchaseReceipt(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodPost, "/api/v1/items/1/purchase", "0xbuyer", `{"amount":2,"paid":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Receipt struct {
			TotalCost uint64 `json:"total_cost"`
			Refund    uint64 `json:"refund"`
			Remaining uint64 `json:"remaining"`
		} `json:"receipt"`
	}
	decode(t, rec, &resp)
	if resp.Receipt.TotalCost != 4 || resp.Receipt.Refund != 1 || resp.Receipt.Remaining != 8 {
		t.Fatalf("receipt = %+v", resp.Receipt)
	}
}

func TestStockQueries(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/items/1/stock", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stock: %d", rec.Code)
	}
	var stockResp struct {
		Stock uint64 `json:"stock"`
	}
	decode(t, rec, &stockResp)
	if stockResp.Stock != 10 {
		t.Fatalf("stock = %d, want 10", stockResp.Stock)
	}

	// Unknown ids report zero stock instead of 404.
	rec = do(t, h, http.MethodGet, "/api/v1/items/99/stock", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stock of missing id: %d", rec.Code)
	}
	decode(t, rec, &stockResp)
	if stockResp.Stock != 0 {
		t.Fatalf("stock = %d, want 0", stockResp.Stock)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/items/1/sold-out", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sold-out: %d", rec.Code)
	}
	var soldResp struct {
		SoldOut bool `json:"sold_out"`
	}
	decode(t, rec, &soldResp)
	if soldResp.SoldOut {
		t.Fatal("fresh item reported sold out")
	}
}

func TestAvailableListing(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)
	rec := do(t, h, http.MethodPost, "/api/v1/items", testOwner,
		`{"name":"gadget","unit_price":1,"initial_quantity":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add second item: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/items/2/status", testOwner, `{"is_active":false}`); rec.Code != http.StatusOK {
		t.Fatalf("deactivate: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/items/available", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("available: %d", rec.Code)
	}
	var resp struct {
		Available struct {
			IDs []uint64 `json:"ids"`
		} `json:"available"`
	}
	decode(t, rec, &resp)
	if len(resp.Available.IDs) != 1 || resp.Available.IDs[0] != 1 {
		t.Fatalf("available ids = %v, want [1]", resp.Available.IDs)
	}
}

func TestEventsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/events?limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("events: %d", rec.Code)
	}
	var resp struct {
		Events []struct {
			Type string `json:"type"`
			Seq  uint64 `json:"seq"`
		} `json:"events"`
	}
	decode(t, rec, &resp)
	if len(resp.Events) != 1 || resp.Events[0].Type != "item_added" {
		t.Fatalf("events = %+v", resp.Events)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/events?limit=-1", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: %d, want 400", rec.Code)
	}
}

func TestOwnershipEndpoints(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodPost, "/api/v1/owner/transfer", testOwner, `{"new_owner":"0xnext"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/owner", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: %d", rec.Code)
	}
	var resp struct {
		Owner string `json:"owner"`
	}
	decode(t, rec, &resp)
	if resp.Owner != "0xnext" {
		t.Fatalf("owner = %q, want 0xnext", resp.Owner)
	}

	// The previous owner lost admin rights with the handover.
	rec = do(t, h, http.MethodPost, "/api/v1/emergency-stop", testOwner, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stale owner stop: %d, want 403", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/emergency-stop", "0xnext", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserPurchasesEndpoint(t *testing.T) {
	h := newTestHandler(t)
	initAndAdd(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/purchases?user=0xbuyer&item=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("purchases: %d", rec.Code)
	}
	var resp struct {
		Purchased uint64 `json:"purchased"`
	}
	decode(t, rec, &resp)
	if resp.Purchased != 0 {
		t.Fatalf("purchased = %d, want 0", resp.Purchased)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/purchases?user=0xbuyer&item=abc", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad item id: %d, want 400", rec.Code)
	}
}
