package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labtrack/internal/domain"
	"labtrack/internal/idgen"
	"labtrack/internal/metrics"
	"labtrack/internal/notify"
	"labtrack/internal/repository"
	"labtrack/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	m := metrics.NewRegistry()

	conversions := service.NewConversionService(store, idgen.New(), notify.Nop{}, m, logger)
	recycle := service.NewRecycleService(store, m, logger)

	router := NewRouter(logger)
	router.RegisterCoreRoutes(NewAPI(conversions, recycle, logger))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func seedWonLead(store *repository.MemoryStore, id string) {
	store.SeedLead(&domain.Lead{
		ID:               id,
		OrganizationName: "Helix Dx",
		ContactName:      "Robin Hale",
		Category:         domain.LeadCategoryClinical,
		ServiceName:      "panel sequencing",
		Status:           domain.LeadStatusWon,
	})
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestConvertLead_OK(t *testing.T) {
	srv, store := newTestServer(t)
	seedWonLead(store, "L1")

	amount := 9800.0
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{
		"amount":         amount,
		"labDestination": domain.LabDestinationInHouse,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lead := body["lead"].(map[string]any)
	require.Equal(t, domain.LeadStatusConverted, lead["status"])

	sample := body["sample"].(map[string]any)
	require.Regexp(t, `^PG\d{12}$`, sample["sampleId"])
	require.Equal(t, "L1", sample["leadId"])

	finance := body["finance"].(map[string]any)
	require.Equal(t, "9800", finance["amount"])

	require.NotNil(t, body["labProcessing"])
	// no counselling asked for and the lead did not require it
	require.Nil(t, body["geneticCounselling"])
}

func TestConvertLead_UnknownLead404(t *testing.T) {
	srv, _ := newTestServer(t)

	amount := 100.0
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/leads/nope/convert", map[string]any{"amount": amount})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not found", body["message"])
}

func TestConvertLead_MissingAmount400(t *testing.T) {
	srv, store := newTestServer(t)
	seedWonLead(store, "L1")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", body["message"])
	require.Contains(t, body["details"], "amount")
}

func TestConvertLead_NotWon400(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedLead(&domain.Lead{ID: "L1", Category: domain.LeadCategoryClinical, Status: domain.LeadStatusHot})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{"amount": 100.0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "precondition failed", body["message"])
}

func TestConvertLead_SecondCallConflicts(t *testing.T) {
	srv, store := newTestServer(t)
	seedWonLead(store, "L1")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{"amount": 100.0})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the lead is converted now, so the precondition fails
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{"amount": 100.0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateLeadStatus(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedLead(&domain.Lead{ID: "L1", Category: domain.LeadCategoryClinical, Status: domain.LeadStatusQuoted})

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/leads/L1/status", map[string]string{"status": domain.LeadStatusHot})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, domain.LeadStatusHot, body["lead"].(map[string]any)["status"])

	// quoted -> won is not a legal hop and hot is already left behind
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/leads/L1/status", map[string]string{"status": domain.LeadStatusQuoted})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "conflict", body["message"])

	// converted is never reachable through this endpoint
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/leads/L1/status", map[string]string{"status": domain.LeadStatusConverted})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateSampleStatus(t *testing.T) {
	srv, store := newTestServer(t)
	seedWonLead(store, "L1")
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/leads/L1/convert", map[string]any{"amount": 100.0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sampleID := body["sample"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/samples/"+sampleID+"/status",
		map[string]string{"status": domain.SampleStatusReceived})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, domain.SampleStatusReceived, body["sample"].(map[string]any)["status"])

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/samples/"+sampleID+"/status",
		map[string]string{"status": "lost"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteAndRestoreFlow(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedUser(&domain.User{ID: "U1", Account: "OP2403021704", Name: "Avery Chen", Role: domain.RoleOperations, Status: "active"})

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/users/U1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "U1", body["id"])

	// the entry is visible in the bin
	resp, err := http.Get(srv.URL + "/recycle")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	resp.Body.Close()
	require.Len(t, entries, 1)
	require.Equal(t, "users", entries[0]["entityType"])
	require.Equal(t, "U1", entries[0]["entityId"])
	recycleID := entries[0]["id"].(string)

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/recycle/%s/restore", srv.URL, recycleID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	require.Equal(t, "users", body["entityType"])

	// second restore finds nothing
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/recycle/%s/restore", srv.URL, recycleID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUnknownResource404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/leads/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecyclePurge(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedUser(&domain.User{ID: "U1", Account: "a", Role: domain.RoleLab, Status: "active"})

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/users/U1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	httpResp, err := http.Get(srv.URL + "/recycle")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&entries))
	httpResp.Body.Close()
	recycleID := entries[0]["id"].(string)

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/recycle/"+recycleID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, recycleID, body["id"])

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/recycle/"+recycleID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMalformedBodyRejectedAndLogged(t *testing.T) {
	store := repository.NewMemoryStore()
	seedWonLead(store, "L1")
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	m := metrics.NewRegistry()

	conversions := service.NewConversionService(store, idgen.New(), notify.Nop{}, m, zap.NewNop())
	recycle := service.NewRecycleService(store, m, zap.NewNop())
	router := NewRouter(logger)
	router.RegisterCoreRoutes(NewAPI(conversions, recycle, logger))
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/leads/L1/convert", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, logs.FilterMessage("invalid conversion request body").Len())

	// the lead is untouched
	lead, err := store.GetLead(context.Background(), "L1")
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusWon, lead.Status)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, store := newTestServer(t)
	seedWonLead(store, "L1")

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/leads/L1/convert", nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
