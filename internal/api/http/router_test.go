package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/systemcontrol/defect-service/internal/api/http/handlers"
	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/config"
	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/events"
	"github.com/systemcontrol/defect-service/internal/observability"
	"github.com/systemcontrol/defect-service/internal/repository"
	"github.com/systemcontrol/defect-service/internal/service"
)

type testEnv struct {
	app       *fiber.App
	store     repository.Store
	projectID int64
	tokens    map[domain.Role]string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}
	authService := service.NewAuthService(authCfg, store, logger)

	tokens := map[domain.Role]string{}
	for _, seed := range []struct {
		username string
		role     domain.Role
	}{
		{"eng", domain.RoleEngineer},
		{"mgr", domain.RoleManager},
		{"adm", domain.RoleAdmin},
	} {
		hash, err := auth.HashPassword("pw", authCfg.BcryptCost)
		require.NoError(t, err)
		user := &domain.User{Username: seed.username, PasswordHash: hash, Role: seed.role}
		require.NoError(t, store.Users().Create(ctx, user))
		token, _, err := authService.TokenManager().GenerateToken(user.ID, user.Username, user.Role)
		require.NoError(t, err)
		tokens[seed.role] = token
	}

	project := &domain.Project{Name: "Line 7"}
	require.NoError(t, store.Projects().Create(ctx, project))

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(authService),
		Defects:        handlers.NewDefectsHandler(service.NewDefectService(store, dispatcher)),
		Projects:       handlers.NewProjectsHandler(service.NewProjectService(store)),
		Comments:       handlers.NewCommentsHandler(service.NewCommentService(store, dispatcher)),
		Reports:        handlers.NewReportsHandler(service.NewReportService(store, nil, logger)),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), store.Users()),
	})

	return &testEnv{app: app, store: store, projectID: project.ID, tokens: tokens}
}

func (e *testEnv) request(t *testing.T, method, path string, role domain.Role, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (e *testEnv) createDefect(t *testing.T, title string) int64 {
	t.Helper()
	resp, body := e.request(t, fiber.MethodPost, "/defects", domain.RoleManager, fiber.Map{
		"title":     title,
		"projectId": e.projectID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return int64(body["id"].(float64))
}

func errorField(t *testing.T, body map[string]any, key string) any {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "no error object in %v", body)
	return errObj[key]
}

func TestRoutesRequireAuthentication(t *testing.T) {
	env := setupEnv(t)

	resp, body := env.request(t, fiber.MethodGet, "/defects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorField(t, body, "code"))
}

func TestMatrixGatesDefectCreation(t *testing.T) {
	env := setupEnv(t)

	resp, body := env.request(t, fiber.MethodPost, "/defects", domain.RoleEngineer, fiber.Map{
		"title":     "nope",
		"projectId": env.projectID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorField(t, body, "code"))
}

func TestLoginIssuesUsableToken(t *testing.T) {
	env := setupEnv(t)

	resp, body := env.request(t, fiber.MethodPost, "/auth/login", "", fiber.Map{
		"username": "eng",
		"password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meResp.StatusCode)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := setupEnv(t)

	resp, body := env.request(t, fiber.MethodPost, "/auth/login", "", fiber.Map{
		"username": "eng",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorField(t, body, "code"))
}

func TestDefectLifecycleOverHTTP(t *testing.T) {
	env := setupEnv(t)
	id := env.createDefect(t, "Conveyor stalls")
	idPath := "/defects/" + itoa(id)

	// engineers may move status
	resp, body := env.request(t, fiber.MethodPut, idPath+"/status", domain.RoleEngineer, fiber.Map{
		"status": "IN_PROGRESS",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_PROGRESS", body["status"])

	// an illegal jump reports the allowed set
	resp, body = env.request(t, fiber.MethodPut, idPath+"/status", domain.RoleEngineer, fiber.Map{
		"status": "CLOSED",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", errorField(t, body, "code"))
	msg, _ := errorField(t, body, "message").(string)
	assert.Contains(t, msg, "IN_REVIEW")
	assert.Contains(t, msg, "CANCELLED")

	resp, body = env.request(t, fiber.MethodGet, idPath+"/allowed-statuses", domain.RoleEngineer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	allowed, _ := body["allowedStatuses"].([]any)
	assert.ElementsMatch(t, []any{"IN_REVIEW", "CANCELLED"}, allowed)

	// trail: creation plus one status move
	req := httptest.NewRequest(fiber.MethodGet, idPath+"/history", nil)
	req.Header.Set("Authorization", "Bearer "+env.tokens[domain.RoleEngineer])
	histResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "CREATED", entries[0]["action"])
	assert.Equal(t, "STATUS_CHANGED", entries[1]["action"])
	assert.Equal(t, "NEW", entries[1]["oldValue"])
	assert.Equal(t, "IN_PROGRESS", entries[1]["newValue"])
}

func TestDeleteRequiresManagerRole(t *testing.T) {
	env := setupEnv(t)
	id := env.createDefect(t, "Short-lived")
	idPath := "/defects/" + itoa(id)

	resp, _ := env.request(t, fiber.MethodDelete, idPath, domain.RoleEngineer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, fiber.MethodDelete, idPath, domain.RoleManager, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.request(t, fiber.MethodGet, idPath, domain.RoleEngineer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorField(t, body, "code"))
}

func TestCommentsOverHTTP(t *testing.T) {
	env := setupEnv(t)
	id := env.createDefect(t, "With thread")
	idPath := "/defects/" + itoa(id)

	resp, body := env.request(t, fiber.MethodPost, idPath+"/comments", domain.RoleEngineer, fiber.Map{
		"content": "Reproduced on unit 4",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Reproduced on unit 4", body["content"])

	req := httptest.NewRequest(fiber.MethodGet, idPath+"/comments", nil)
	req.Header.Set("Authorization", "Bearer "+env.tokens[domain.RoleManager])
	listResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var comments []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&comments))
	assert.Len(t, comments, 1)
}

func TestAnalyticsOverHTTP(t *testing.T) {
	env := setupEnv(t)
	env.createDefect(t, "One")
	env.createDefect(t, "Two")

	resp, body := env.request(t, fiber.MethodGet, "/reports/analytics", domain.RoleEngineer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total_defects"])
	assert.Equal(t, float64(2), body["new_defects"])
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
