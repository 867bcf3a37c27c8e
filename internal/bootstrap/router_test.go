package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/app/repositories/repotest"
	"github.com/yigit/electives/internal/bootstrap"
	"github.com/yigit/electives/internal/config"
	"github.com/yigit/electives/internal/pkg/websocket"
)

type testApp struct {
	router *gin.Engine
	deps   *bootstrap.Dependencies
	store  repositories.AllocationStore
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.RequestTimeout = "5s"
	cfg.Server.FeedBuffer = 16
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "electives.test"
	cfg.JWT.AccessTokenExpiration = "1h"
	return cfg
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig()
	store := repotest.NewStore(t)
	deps := bootstrap.BuildDependencies(cfg, store, zerolog.Nop())
	return &testApp{
		router: bootstrap.SetupRouter(cfg, deps, zerolog.Nop()),
		deps:   deps,
		store:  store,
	}
}

func (a *testApp) token(t *testing.T, id int64, role models.RoleType) string {
	t.Helper()
	token, err := a.deps.JWTService.GenerateAccessToken(id, fmt.Sprintf("user%d", id), string(role))
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, dto.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp dto.APIResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp dto.APIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestRouter_Liveness(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, resp := app.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestRouter_Authentication(t *testing.T) {
	app := newTestApp(t)

	w, resp := app.do(t, http.MethodGet, "/api/v1/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, resp.Error.Code)

	w, resp = app.do(t, http.MethodGet, "/api/v1/subjects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, resp.Error.Code)

	w, resp = app.do(t, http.MethodGet, "/api/v1/subjects", "a.b.c", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, resp.Error.Code)

	student := app.token(t, 1, models.RoleStudent)
	w, resp = app.do(t, http.MethodGet, "/api/v1/admin/settings", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, resp.Error.Code)

	admin := app.token(t, 1, models.RoleAdmin)
	w, _ = app.do(t, http.MethodPost, "/api/v1/selections", admin, map[string]any{"subjectId": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_QueryTokenOnlyOnDownloadAndFeed(t *testing.T) {
	app := newTestApp(t)
	student := app.token(t, 1, models.RoleStudent)
	admin := app.token(t, 2, models.RoleAdmin)

	tests := []struct {
		method, path, token string
	}{
		{http.MethodGet, "/api/v1/subjects", student},
		{http.MethodPost, "/api/v1/selections", student},
		{http.MethodGet, "/api/v1/admin/settings", admin},
		{http.MethodPut, "/api/v1/admin/settings", admin},
		{http.MethodDelete, "/api/v1/admin/selections/1", admin},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path+"?token="+tt.token, nil)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tt.method, tt.path)
		var resp dto.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeUnauthorized, resp.Error.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/selections/export?token="+admin, nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SelectFlow(t *testing.T) {
	app := newTestApp(t)

	student := repotest.Student(t, app.store, "cse_student_1", "CSE", 3)
	own := repotest.Subject(t, app.store, "CSE401", 5, "CSE", 0)
	ece := repotest.Subject(t, app.store, "ECE401", 1, "ECE", 0)
	token := app.token(t, student.ID, models.RoleStudent)

	w, resp := app.do(t, http.MethodPost, "/api/v1/selections", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "subjectId", resp.Error.Field)

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", token, map[string]any{"subjectId": own.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrorCodeIneligible, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "own branch")

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", token, map[string]any{"subjectId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeSubjectNotFound, resp.Error.Code)

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", token, map[string]any{"subjectId": ece.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.EqualValues(t, ece.ID, dataMap(t, resp)["subjectId"])

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", token, map[string]any{"subjectId": ece.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeAlreadyAllocated, resp.Error.Code)

	w, resp = app.do(t, http.MethodGet, "/api/v1/selections/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	allocation, ok := dataMap(t, resp)["allocation"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, ece.ID, allocation["subjectId"])

	w, resp = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/subjects/%d/occupancy", ece.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, dataMap(t, resp)["occupancy"])

	w, resp = app.do(t, http.MethodGet, "/api/v1/subjects/abc/occupancy", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidRequest, resp.Error.Code)

	other := repotest.Student(t, app.store, "civil_student_1", "CIVIL", 3)
	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", app.token(t, other.ID, models.RoleStudent), map[string]any{"subjectId": ece.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeSubjectFull, resp.Error.Code)
}

func TestRouter_Preferences(t *testing.T) {
	app := newTestApp(t)

	student := repotest.Student(t, app.store, "cse_student_1", "CSE", 3)
	full := repotest.Subject(t, app.store, "CIV401", 1, "CIVIL", 0)
	open := repotest.Subject(t, app.store, "ECE401", 5, "ECE", 0)
	token := app.token(t, student.ID, models.RoleStudent)

	holder := repotest.Student(t, app.store, "ece_student_1", "ECE", 3)
	_, err := app.deps.Services.AllocationService.Select(context.Background(), holder.ID, full.ID)
	require.NoError(t, err)

	w, resp := app.do(t, http.MethodPost, "/api/v1/selections/preferences", token, map[string]any{"subjectIds": []int64{open.ID, open.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections/preferences", token, map[string]any{"subjectIds": []int64{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections/preferences", token, map[string]any{"subjectIds": []int64{full.ID}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeNoEligibleSubject, resp.Error.Code)

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections/preferences", token, map[string]any{"subjectIds": []int64{full.ID, open.ID}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, open.ID, dataMap(t, resp)["subjectId"])

	w, resp = app.do(t, http.MethodGet, "/api/v1/selections/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(full.ID), float64(open.ID)}, dataMap(t, resp)["preferences"])
}

func TestRouter_AdminSettingsGateStudents(t *testing.T) {
	app := newTestApp(t)

	student := repotest.Student(t, app.store, "cse_student_1", "CSE", 3)
	subject := repotest.Subject(t, app.store, "ECE401", 5, "ECE", 0)
	studentToken := app.token(t, student.ID, models.RoleStudent)
	adminToken := app.token(t, 1, models.RoleAdmin)

	w, resp := app.do(t, http.MethodPut, "/api/v1/admin/settings", adminToken, map[string]any{"deadline": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "loginEnabled", resp.Error.Field)

	w, resp = app.do(t, http.MethodPut, "/api/v1/admin/settings", adminToken, map[string]any{"loginEnabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataMap(t, resp)["loginEnabled"])

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", studentToken, map[string]any{"subjectId": subject.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeSelectionClosed, resp.Error.Code)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	w, resp = app.do(t, http.MethodPut, "/api/v1/admin/settings", adminToken, map[string]any{"loginEnabled": true, "deadline": past})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataMap(t, resp)["open"])
	assert.Equal(t, past, dataMap(t, resp)["deadline"])

	w, resp = app.do(t, http.MethodPost, "/api/v1/selections", studentToken, map[string]any{"subjectId": subject.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeDeadlineClosed, resp.Error.Code)

	w, resp = app.do(t, http.MethodGet, "/api/v1/admin/settings", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataMap(t, resp)["loginEnabled"])
}

func TestRouter_AdminRoster(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	subject := repotest.Subject(t, app.store, "ECE401", 10, "ECE", 0)
	var first *models.Student
	for i := 1; i <= 3; i++ {
		student := repotest.Student(t, app.store, fmt.Sprintf("cse_student_%d", i), "CSE", 1)
		if first == nil {
			first = student
		}
		_, err := app.deps.Services.AllocationService.Select(ctx, student.ID, subject.ID)
		require.NoError(t, err)
	}
	adminToken := app.token(t, 1, models.RoleAdmin)

	w, resp := app.do(t, http.MethodGet, "/api/v1/admin/selections?page=1&size=2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Pagination)
	assert.EqualValues(t, 3, resp.Pagination.TotalItems)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Len(t, resp.Data, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/selections/export?token="+adminToken, nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Student ID,Username"))

	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/selections/%d", first.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/selections/%d", first.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/v1/admin/selections/zero", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = app.do(t, http.MethodGet, "/api/v1/subjects", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subjects, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, subjects, 1)
	row := subjects[0].(map[string]any)
	assert.EqualValues(t, 2, row["occupancy"])
	assert.EqualValues(t, 8, row["remaining"])
}

func TestRouter_OccupancyFeed(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.deps.OccupancyHub.Run(ctx)

	subject := repotest.Subject(t, app.store, "ECE401", 3, "ECE", 0)
	student := repotest.Student(t, app.store, "cse_student_1", "CSE", 1)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/subjects/live?token=" + app.token(t, student.ID, models.RoleStudent)
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvents := func() []websocket.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var events []websocket.Event
		for _, line := range bytes.Split(raw, []byte{'\n'}) {
			var event websocket.Event
			require.NoError(t, json.Unmarshal(line, &event))
			events = append(events, event)
		}
		return events
	}

	snapshot := readEvents()
	require.Len(t, snapshot, 1)
	assert.Equal(t, websocket.EventTypeOccupancy, snapshot[0].Type)
	assert.Equal(t, subject.ID, snapshot[0].SubjectID)
	assert.Zero(t, snapshot[0].Occupancy)
	assert.Equal(t, 3, snapshot[0].Remaining)

	require.Eventually(t, func() bool { return app.deps.OccupancyHub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	_, err = app.deps.Services.AllocationService.Select(context.Background(), student.ID, subject.ID)
	require.NoError(t, err)

	update := readEvents()
	require.Len(t, update, 1)
	assert.Equal(t, subject.ID, update[0].SubjectID)
	assert.Equal(t, 1, update[0].Occupancy)
	assert.Equal(t, 2, update[0].Remaining)
}
