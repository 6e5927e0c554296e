package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/metrics"
	"GoLetterAI/app/models"
	"GoLetterAI/app/services"
	"GoLetterAI/app/storage"
	"GoLetterAI/app/teams"
	"GoLetterAI/app/utils"
	"GoLetterAI/app/workflow"
)

func approvingGenerator() models.TextGenerator {
	return models.GeneratorFunc(func(_ context.Context, role teams.RoleID, _ string,
		_ []teams.ConversationEntry, req letters.Request) (string, error) {
		approved, _ := role.Markers()
		if role == teams.Writer {
			return "Dear " + req.CustomerInfo.Name + ",\nYour policy is renewed.\n" + approved, nil
		}
		return "Looks good. " + approved, nil
	})
}

func rejectingGenerator() models.TextGenerator {
	return models.GeneratorFunc(func(_ context.Context, role teams.RoleID, _ string,
		_ []teams.ConversationEntry, _ letters.Request) (string, error) {
		approved, rejected := role.Markers()
		if role == teams.ComplianceReviewer {
			return "Missing disclaimer. " + rejected, nil
		}
		return "Draft text " + approved, nil
	})
}

type fixture struct {
	server    *httptest.Server
	completer *models.MockCompleter
	audit     *utils.AuditLogger
}

func newFixture(t *testing.T, gen models.TextGenerator) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "letters.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	audit := utils.NewMemoryLogger("service", 50)
	completer := &models.MockCompleter{}
	flow := workflow.New(teams.NewTeam(), gen, workflow.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	svc := services.NewService(flow, completer, store, services.Settings{DefaultMaxRounds: 2, PersistConversation: true},
		services.WithAuditLogger(audit))

	srv := NewServer(svc,
		WithAudit("service", audit),
		WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{server: ts, completer: completer, audit: audit}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func draftBody() map[string]any {
	return map[string]any{
		"customer_info": map[string]any{"name": "Jane Doe", "policy_number": "POL-42"},
		"letter_type":   "policy_renewal",
		"user_prompt":   "Tell Jane her policy renews next month.",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	resp, body := f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "mock", body["model"])
}

func TestDraftApprovedAndStored(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	req := draftBody()
	req["include_conversation"] = true

	resp, body := f.do(t, http.MethodPost, "/api/draft-letter", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["compliance_status"])
	assert.EqualValues(t, 1, body["total_rounds"])
	assert.NotContains(t, body["letter_content"], "WRITER_APPROVED")
	assert.Len(t, body["conversation"], 3)
	id, _ := body["document_id"].(string)
	require.NotEmpty(t, id)

	resp, doc := f.do(t, http.MethodGet, "/api/letters/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "POL-42", doc["policy_number"])
	assert.Equal(t, "policy_renewal", doc["letter_type"])

	resp, conv := f.do(t, http.MethodGet, "/api/letters/"+id+"/conversation", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := conv["conversation"].([]any)
	require.Len(t, entries, 3)
	assert.Equal(t, "Writer", entries[0].(map[string]any)["agent"])
}

func TestDraftExhaustedIsStillOK(t *testing.T) {
	f := newFixture(t, rejectingGenerator())
	resp, body := f.do(t, http.MethodPost, "/api/draft-letter", draftBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "needs_review", body["compliance_status"])
	assert.EqualValues(t, 2, body["total_rounds"])
	approval := body["approval_status"].(map[string]any)
	assert.Equal(t, false, approval["overall_approved"])
	assert.Equal(t, workflow.StatusNeedsImprovement, approval["status"])
}

func TestDraftInvalidInput(t *testing.T) {
	f := newFixture(t, approvingGenerator())

	resp, body := f.do(t, http.MethodPost, "/api/draft-letter", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid JSON")

	resp, body = f.do(t, http.MethodPost, "/api/draft-letter", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "request body is required", body["error"])

	req := draftBody()
	req["user_prompt"] = ""
	resp, body = f.do(t, http.MethodPost, "/api/draft-letter", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["fields"])

	req = draftBody()
	req["max_rounds"] = -1
	resp, _ = f.do(t, http.MethodPost, "/api/draft-letter", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDraftGenerationFailure(t *testing.T) {
	gen := models.GeneratorFunc(func(_ context.Context, role teams.RoleID, _ string,
		_ []teams.ConversationEntry, _ letters.Request) (string, error) {
		if role == teams.ComplianceReviewer {
			return "", errors.New("model offline")
		}
		return "Draft WRITER_APPROVED", nil
	})
	f := newFixture(t, gen)

	resp, body := f.do(t, http.MethodPost, "/api/draft-letter", draftBody())
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.EqualValues(t, 1, body["round"])
	assert.Equal(t, "ComplianceReviewer", body["agent"])
	assert.Contains(t, body["error"], "model offline")
	assert.Len(t, body["conversation"], 1)
}

func TestLetterLifecycle(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	_, first := f.do(t, http.MethodPost, "/api/draft-letter", draftBody())
	other := draftBody()
	other["customer_info"] = map[string]any{"name": "John Roe", "policy_number": "POL-7"}
	other["letter_type"] = "claim_denial"
	_, second := f.do(t, http.MethodPost, "/api/draft-letter", other)
	id := first["document_id"].(string)

	resp, list := f.do(t, http.MethodGet, "/api/letters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, list["count"])

	_, list = f.do(t, http.MethodGet, "/api/letters?letter_type=claim_denial", nil)
	require.EqualValues(t, 1, list["count"])
	assert.Equal(t, second["document_id"], list["letters"].([]any)[0].(map[string]any)["id"])

	_, list = f.do(t, http.MethodGet, "/api/letters?customer_name=Jane%20Doe&limit=1", nil)
	assert.EqualValues(t, 1, list["count"])

	resp, doc := f.do(t, http.MethodPatch, "/api/letters/"+id+"/status", map[string]string{"status": "sent"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sent", doc["compliance_status"])
	assert.NotEmpty(t, doc["updated_at"])

	resp, _ = f.do(t, http.MethodPatch, "/api/letters/"+id+"/status", map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/letters/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/letters/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = f.do(t, http.MethodGet, "/api/letters/"+id+"/conversation", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/letters/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, list = f.do(t, http.MethodGet, "/api/letters", nil)
	assert.EqualValues(t, 1, list["count"])
}

func TestListLettersBadQuery(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	for _, q := range []string{"letter_type=memo", "status=lost", "limit=-2", "limit=x", "include_deleted=maybe"} {
		resp, body := f.do(t, http.MethodGet, "/api/letters?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.NotEmpty(t, body["error"], q)
	}
}

func TestSuggestLetterType(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	f.completer.On("Complete", mock.Anything, mock.Anything).
		Return("Suggested type: claim_denial\nConfidence: 0.9\nReasoning: the claim was refused", nil).Once()

	resp, body := f.do(t, http.MethodPost, "/api/suggest-letter-type", map[string]string{"user_prompt": "deny the claim"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "claim_denial", body["suggested_type"])
	assert.InDelta(t, 0.9, body["confidence"], 1e-9)

	resp, _ = f.do(t, http.MethodPost, "/api/suggest-letter-type", map[string]string{"user_prompt": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	f.completer.AssertExpectations(t)
}

func TestValidateLetter(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	f.completer.On("Complete", mock.Anything, mock.Anything).
		Return("COMPLIANCE_REJECTED\nIssues:\n- No appeal rights\nSuggestions:\n- Add appeal section", nil).Once()

	resp, body := f.do(t, http.MethodPost, "/api/validate-letter",
		map[string]string{"letter_content": "<p>Dear Jane</p>", "letter_type": "claim_denial"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_valid"])
	assert.Equal(t, []any{"No appeal rights"}, body["compliance_issues"])

	f.completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()
	resp, _ = f.do(t, http.MethodPost, "/api/validate-letter", map[string]string{"letter_content": "Dear Jane"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/validate-letter", map[string]string{"letter_content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAudits(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	f.audit.Printf("first line")
	f.audit.Printf("second line")

	resp, body := f.do(t, http.MethodGet, "/api/audits?name=service&n=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := body["service"].([]any)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "second line")

	resp, _ = f.do(t, http.MethodGet, "/api/audits?name=nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/audits?n=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	f.do(t, http.MethodPost, "/api/draft-letter", draftBody())

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `letter_workflow_runs_total{outcome="approved"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, approvingGenerator())
	resp, _ := f.do(t, http.MethodGet, "/api/draft-letter", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
