package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shivaapratim/mini-crm/internal/core/auth"
	"github.com/shivaapratim/mini-crm/internal/core/db"
	"github.com/shivaapratim/mini-crm/internal/ingest"
	"github.com/shivaapratim/mini-crm/internal/segments"
	"github.com/shivaapratim/mini-crm/internal/types"
	"github.com/shivaapratim/mini-crm/internal/worker"
)

// newTestServer wires the full stack over a throwaway SQLite database.
func newTestServer(t *testing.T, cronSecret string) (*httptest.Server, *db.Store) {
	t.Helper()

	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))

	store, err := db.NewStore(conn)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(
		ingest.NewService(store, log),
		segments.NewService(store, log),
		worker.NewReconciler(store, 10, log),
		auth.NewTriggerGuard(cronSecret, log),
		log,
	)
	require.NoError(t, err)

	srv := httptest.NewServer(svc.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/ping")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pong", body["message"])
}

func TestIngestCustomer_Accepted(t *testing.T) {
	srv, store := newTestServer(t, "")

	resp, body := postJSON(t, srv.URL+"/api/v1/ingest/customers",
		`{"name": "Alice", "email": "alice@example.com"}`)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["pendingId"])

	// The canonical store is untouched until a worker run.
	count, err := store.CountCustomers(t.Context())
	require.NoError(t, err)
	require.Zero(t, count)

	id, err := types.ParsePendingID(body["pendingId"].(string))
	require.NoError(t, err)
	rec, err := store.GetPending(t.Context(), types.KindCustomer, id)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, rec.Status)
}

func TestIngestCustomer_BadShape(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"name": "Alice"}`},
		{"missing name", `{"email": "a@b.com"}`},
		{"not an object", `[1,2]`},
		{"invalid json", `{“smart quotes”}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/v1/ingest/customers", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, false, body["success"])
		})
	}
}

func TestIngestOrder_Accepted(t *testing.T) {
	srv, store := newTestServer(t, "")

	customerID := types.NewCustomerID()
	resp, body := postJSON(t, srv.URL+"/api/v1/ingest/orders",
		`{"customerId": "`+string(customerID)+`", "orderAmount": 49.5}`)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, true, body["success"])

	id, err := types.ParsePendingID(body["pendingId"].(string))
	require.NoError(t, err)
	rec, err := store.GetPending(t.Context(), types.KindOrder, id)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, rec.Status)
}

func TestSegmentPreviewAndCreate(t *testing.T) {
	srv, store := newTestServer(t, "")

	for _, c := range []*types.Customer{
		{Name: "A", Email: "a@example.com", TotalSpends: 10},
		{Name: "B", Email: "b@example.com", TotalSpends: 2000},
	} {
		require.NoError(t, store.InsertCustomer(t.Context(), c))
	}

	def := `[{"type":"group","logic":"AND","rules":[{"type":"rule","field":"totalSpends","operator":">","value":100}]}]`

	resp, body := postJSON(t, srv.URL+"/api/v1/segments/preview",
		`{"rulesDefinition": `+def+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["audienceSize"])

	resp, body = postJSON(t, srv.URL+"/api/v1/segments",
		`{"name": "spenders", "rulesDefinition": `+def+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["segmentId"])
	require.Equal(t, float64(1), body["audienceSize"])

	resp, err := http.Get(srv.URL + "/api/v1/campaigns")
	require.NoError(t, err)
	listBody := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), listBody["count"])
	data := listBody["data"].([]any)
	first := data[0].(map[string]any)
	require.Equal(t, "spenders", first["name"])
	require.Equal(t, float64(0), first["sent"])
	require.Equal(t, float64(0), first["failed"])
}

func TestSegmentCreate_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"rulesDefinition": [{"type":"group","rules":[]}]}`},
		{"missing definition", `{"name": "x"}`},
		{"empty definition", `{"name": "x", "rulesDefinition": []}`},
		{"definition not array", `{"name": "x", "rulesDefinition": {"a":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/v1/segments", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, false, body["success"])
		})
	}
}

func TestJobTrigger_MethodAndAuth(t *testing.T) {
	srv, _ := newTestServer(t, "s3cret")

	t.Run("GET is rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/jobs/process-pending-customers")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("missing bearer is rejected", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/jobs/process-pending-customers", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong bearer is rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/jobs/process-pending-customers", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer wrong")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("correct bearer runs the batch", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/jobs/process-pending-customers", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer s3cret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, true, body["success"])
		require.Equal(t, float64(0), body["processed"])
	})
}

func TestJobTrigger_NoSecretRunsOpen(t *testing.T) {
	srv, store := newTestServer(t, "")

	_, body := postJSON(t, srv.URL+"/api/v1/ingest/customers",
		`{"name": "Alice", "email": "alice@example.com"}`)
	require.NotEmpty(t, body["pendingId"])

	resp, runBody := postJSON(t, srv.URL+"/api/v1/jobs/process-pending-customers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), runBody["processed"])
	require.Equal(t, float64(0), runBody["failed"])

	c, err := store.GetCustomerByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", c.Name)
}
