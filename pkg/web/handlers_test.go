package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/ecampo/vendiq/pkg/persistence/file"
	"github.com/ecampo/vendiq/pkg/runlock"
	"github.com/ecampo/vendiq/pkg/testutil"
	"github.com/ecampo/vendiq/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	app         *fiber.App
	persistence persistence.Persistence
	supplier    *models.Supplier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	supplier := testutil.CreateTestSupplier()
	store := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	orchestrator := workflow.NewOrchestrator(workflow.Config{
		Persistence: store,
		Directory:   &testutil.StubDirectory{Suppliers: map[string]*models.Supplier{supplier.ID: supplier}},
		Documents: &testutil.StubDocuments{
			Extractions: map[models.DocumentType]*models.DocumentExtraction{
				models.DocumentDURC:   testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC),
				models.DocumentVisura: testutil.CreateTestExtraction(supplier.ID, models.DocumentVisura),
				models.DocumentISO:    testutil.CreateTestExtraction(supplier.ID, models.DocumentISO),
			},
		},
		Questionnaires: &testutil.StubQuestionnaires{Answers: testutil.CreateTestAnswers(supplier.ID)},
		Reasoner:       &testutil.StubReasoner{Match: true},
		Locker:         runlock.NewMemory(),
		Logger:         logger,
	})

	handlers := NewAPIHandlers(orchestrator, store, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	handlers.Register(app)

	return &testAPI{app: app, persistence: store, supplier: supplier}
}

func decodeRun(t *testing.T, resp *http.Response) *models.WorkflowRun {
	t.Helper()

	var run models.WorkflowRun

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))

	return &run
}

func TestStartRun(t *testing.T) {
	api := newTestAPI(t)

	body, err := json.Marshal(StartRunRequest{IncludeWhiteList: true, TriggeredBy: "tester"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/suppliers/"+api.supplier.ID+"/runs", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	run := decodeRun(t, resp)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.NotNil(t, run.Outcome)
	assert.Equal(t, "tester", run.TriggeredBy)
	assert.Len(t, run.Steps, 8)
}

func TestStartRunInvalidJSON(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/suppliers/"+api.supplier.ID+"/runs", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartStep(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/suppliers/"+api.supplier.ID+"/runs/steps/durc", nil)

	resp, err := api.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	run := decodeRun(t, resp)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, models.StepDURC, run.Steps[0].Key)
}

func TestStartStepUnknownKey(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/suppliers/"+api.supplier.ID+"/runs/steps/customs", nil)

	resp, err := api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun(t *testing.T) {
	api := newTestAPI(t)

	run := &models.WorkflowRun{
		SupplierID:   api.supplier.ID,
		WorkflowType: workflow.WorkflowTypeQualification,
		Status:       models.RunStatusRunning,
		Notes:        []string{},
		StartedAt:    time.Now().UTC(),
	}
	require.NoError(t, api.persistence.CreateRun(context.Background(), run))

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	loaded := decodeRun(t, resp)
	assert.Equal(t, run.ID, loaded.ID)
}

func TestGetRunNotFound(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/runs/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRunVerifications(t *testing.T) {
	api := newTestAPI(t)

	// A full run records DURC, VISURA and ISO verification results.
	req := httptest.NewRequest(http.MethodPost, "/suppliers/"+api.supplier.ID+"/runs", nil)

	resp, err := api.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	run := decodeRun(t, resp)

	resp, err = api.app.Test(httptest.NewRequest(http.MethodGet, "/runs/"+run.ID+"/verifications", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		RunID         string                       `json:"run_id"`
		Verifications []*models.VerificationResult `json:"verifications"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, run.ID, payload.RunID)
	assert.Len(t, payload.Verifications, 3)
}

func TestCancelRunConflictsWhenTerminal(t *testing.T) {
	api := newTestAPI(t)

	run := &models.WorkflowRun{
		SupplierID:   api.supplier.ID,
		WorkflowType: workflow.WorkflowTypeQualification,
		Status:       models.RunStatusRunning,
		Notes:        []string{},
		StartedAt:    time.Now().UTC(),
	}
	require.NoError(t, api.persistence.CreateRun(context.Background(), run))

	resp, err := api.app.Test(httptest.NewRequest(http.MethodPost, "/runs/"+run.ID+"/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	canceled := decodeRun(t, resp)
	assert.Equal(t, models.RunStatusCanceled, canceled.Status)

	resp, err = api.app.Test(httptest.NewRequest(http.MethodPost, "/runs/"+run.ID+"/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
