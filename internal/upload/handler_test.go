package upload

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlens-client/pkg/models"
)

type fakeSessions struct {
	session *models.Session
}

func (f *fakeSessions) Current() (*models.Session, error) {
	if f.session == nil {
		return nil, models.ErrNoCredential
	}
	return f.session, nil
}

func setupHandler(t *testing.T, signedIn bool, resolver *fakeResolver) (*echo.Echo, *Service) {
	t.Helper()
	svc := newTestService(t, &fakeDestinations{}, &fakeTransfers{}, resolver)

	sessions := &fakeSessions{}
	if signedIn {
		sessions.session = &models.Session{Token: "tok-1"}
	}

	e := echo.New()
	NewHandler(svc, sessions).RegisterRoutes(e)
	return e, svc
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StartUpload(t *testing.T) {
	e, svc := setupHandler(t, true, &fakeResolver{files: makeFiles(3)})

	rec := doRequest(e, http.MethodPost, "/uploads",
		`{"collection_id":"col-1","event_id":"evt-1","paths":["/photos"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp StartUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, StateRunning, resp.Status)

	status := waitForState(t, svc, resp.RunID)
	assert.Equal(t, StateSucceeded, status.Status)
}

func TestHandler_StartUploadRequiresSession(t *testing.T) {
	e, _ := setupHandler(t, false, &fakeResolver{files: makeFiles(3)})

	rec := doRequest(e, http.MethodPost, "/uploads",
		`{"collection_id":"col-1","event_id":"evt-1","paths":["/photos"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_StartUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed body", `{"paths":`, http.StatusBadRequest},
		{"missing destination", `{"paths":["/photos"]}`, http.StatusBadRequest},
		{"no paths", `{"collection_id":"col-1","event_id":"evt-1"}`, http.StatusBadRequest},
		{"huge batch size", `{"collection_id":"col-1","event_id":"evt-1","paths":["/photos"],"batch_size":1000000}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupHandler(t, true, &fakeResolver{files: makeFiles(1)})
			rec := doRequest(e, http.MethodPost, "/uploads", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandler_StartQuickUpload(t *testing.T) {
	e, svc := setupHandler(t, false, &fakeResolver{files: makeFiles(2)})

	rec := doRequest(e, http.MethodPost, "/quick-upload",
		`{"link_id":"link-9","collection_id":"col-1","event_id":"evt-1","paths":["/photos"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp StartUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	waitForState(t, svc, resp.RunID)

	rec = doRequest(e, http.MethodPost, "/quick-upload",
		`{"collection_id":"col-1","event_id":"evt-1","paths":["/photos"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RunLifecycle(t *testing.T) {
	e, svc := setupHandler(t, true, &fakeResolver{files: makeFiles(2)})

	rec := doRequest(e, http.MethodGet, "/uploads/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(e, http.MethodDelete, "/uploads/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runID, err := svc.StartUpload(StartUploadRequest{CollectionID: "col-1", EventID: "evt-1", Paths: []string{"/p"}})
	require.NoError(t, err)
	waitForState(t, svc, runID)

	rec = doRequest(e, http.MethodGet, "/uploads/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status RunStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StateSucceeded, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, 2, status.UploadedFiles)

	rec = doRequest(e, http.MethodDelete, "/uploads/"+runID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(e, http.MethodPost, "/uploads/"+runID+"/retry", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
