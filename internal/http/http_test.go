package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
	apihttp "github.com/Nydv01/chemviz-analytics/internal/http"
	"github.com/Nydv01/chemviz-analytics/internal/store"
	"github.com/Nydv01/chemviz-analytics/internal/utils"
)

const validCSV = "Equipment Name,Equipment Type,Flowrate,Pressure,Temperature\n" +
	"Pump-A1,pump,150.5,3.2,45.8\n" +
	"Valve-B2,valve,75.0,2.1,38.5\n"

type testEnv struct {
	engine *gin.Engine
	ctx    *appcontext.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := &appcontext.Context{
		Logger:         zap.NewNop(),
		Datasets:       store.NewMemoryStore(5),
		Users:          store.NewMemoryUserStore(),
		MaxUploadBytes: 10 * 1024 * 1024,
		RetentionLimit: 5,
	}
	service := apihttp.NewHTTPService(ctx)
	return &testEnv{engine: service.Engine(), ctx: ctx}
}

func (e *testEnv) registerUser(t *testing.T, username string) (*entity.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret-password")
	require.NoError(t, err)

	user := &entity.User{Username: username, PasswordHash: hash}
	require.NoError(t, e.ctx.Users.Create(context.Background(), user))

	token, err := utils.GenerateJWT(user.ID.String())
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return e.request(t, http.MethodPost, "/api/upload/", token, &body, writer.FormDataContentType())
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/api/health/", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeJSON(t, w)["status"])
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "operator")

	t.Run("valid credentials", func(t *testing.T) {
		body := bytes.NewBufferString(`{"username":"operator","password":"secret-password"}`)
		w := env.request(t, http.MethodPost, "/api/auth/login/", "", body, "application/json")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Login successful", decodeJSON(t, w)["message"])

		var sawCookie bool
		for _, cookie := range w.Result().Cookies() {
			if cookie.Name == "token" && cookie.Value != "" {
				sawCookie = true
				assert.True(t, cookie.HttpOnly)
			}
		}
		assert.True(t, sawCookie, "login should set the session cookie")
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		wrong := env.request(t, http.MethodPost, "/api/auth/login/", "",
			bytes.NewBufferString(`{"username":"operator","password":"nope"}`), "application/json")
		unknown := env.request(t, http.MethodPost, "/api/auth/login/", "",
			bytes.NewBufferString(`{"username":"ghost","password":"nope"}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, wrong.Code)
		assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString(`{"username":"newuser","password":"longenough","email":"n@example.com"}`)
	w := env.request(t, http.MethodPost, "/api/auth/register/", "", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	short := bytes.NewBufferString(`{"username":"other","password":"short"}`)
	w = env.request(t, http.MethodPost, "/api/auth/register/", "", short, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	dup := bytes.NewBufferString(`{"username":"newuser","password":"longenough"}`)
	w = env.request(t, http.MethodPost, "/api/auth/register/", "", dup, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	w := env.request(t, http.MethodGet, "/api/auth/me/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["isAuthenticated"])

	w = env.request(t, http.MethodGet, "/api/auth/me/", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadCSV(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	t.Run("valid upload", func(t *testing.T) {
		w := env.upload(t, token, "plant_a.csv", validCSV)
		require.Equal(t, http.StatusCreated, w.Code)

		out := decodeJSON(t, w)
		assert.Equal(t, float64(2), out["records_processed"])
		summary := out["summary"].(map[string]any)
		assert.Equal(t, float64(2), summary["total_equipment"])
		assert.InDelta(t, 112.75, summary["avg_flowrate"].(float64), 1e-9)
		assert.Equal(t, map[string]any{"pump": float64(1), "valve": float64(1)}, summary["type_distribution"])
		assert.NotContains(t, out, "warnings")
	})

	t.Run("rows with bad numerics are dropped with a warning", func(t *testing.T) {
		csv := validCSV + "Broken,pump,abc,1.0,2.0\n"
		w := env.upload(t, token, "plant_b.csv", csv)
		require.Equal(t, http.StatusCreated, w.Code)

		out := decodeJSON(t, w)
		assert.Equal(t, float64(2), out["records_processed"])
		require.Contains(t, out, "warnings")
		assert.Contains(t, out["warnings"], "Dropped 1 rows with non-numeric values.")
	})

	t.Run("missing column rejects upload and persists nothing", func(t *testing.T) {
		before, err := env.ctx.Datasets.List(context.Background(), mustUserID(t, token))
		require.NoError(t, err)

		w := env.upload(t, token, "bad.csv", "Name,Type,Flowrate,Pressure\nPump,pump,1,2\n")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		after, err := env.ctx.Datasets.List(context.Background(), mustUserID(t, token))
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("non-csv extension rejected", func(t *testing.T) {
		w := env.upload(t, token, "data.xlsx", validCSV)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized file rejected", func(t *testing.T) {
		small := newTestEnv(t)
		small.ctx.MaxUploadBytes = 1024 * 1024
		_, smallToken := small.registerUser(t, "operator")

		oversized := "Equipment Name,Equipment Type,Flowrate,Pressure,Temperature\n" +
			strings.Repeat("Pump-A1,pump,150.5,3.2,45.8\n", 45000)
		require.Greater(t, int64(len(oversized)), small.ctx.MaxUploadBytes)

		w := small.upload(t, smallToken, "big.csv", oversized)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "must be under")

		datasets, err := small.ctx.Datasets.List(context.Background(), mustUserID(t, smallToken))
		require.NoError(t, err)
		assert.Empty(t, datasets)
	})

	t.Run("invalid utf-8 rejected", func(t *testing.T) {
		content := validCSV + string([]byte{0xff, 0xfe, 0xfd})
		w := env.upload(t, token, "binary.csv", content)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UTF-8")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := env.upload(t, "", "plant_a.csv", validCSV)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHistoryAndRetention(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	for i := 1; i <= 6; i++ {
		w := env.upload(t, token, fmt.Sprintf("upload_%d.csv", i), validCSV)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.request(t, http.MethodGet, "/api/history/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeJSON(t, w)
	assert.Equal(t, float64(5), out["count"])
	datasets := out["datasets"].([]any)
	require.Len(t, datasets, 5)
	assert.Equal(t, "upload_6.csv", datasets[0].(map[string]any)["filename"])
	assert.Equal(t, "upload_2.csv", datasets[4].(map[string]any)["filename"])
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	w := env.upload(t, token, "plant_a.csv", validCSV)
	require.Equal(t, http.StatusCreated, w.Code)
	datasetID := decodeJSON(t, w)["dataset"].(map[string]any)["id"].(string)

	t.Run("recomputed statistics", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/summary/"+datasetID+"/", token, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		out := decodeJSON(t, w)
		assert.Equal(t, datasetID, out["dataset_id"])
		assert.Equal(t, "plant_a.csv", out["filename"])
		assert.Equal(t, float64(2), out["total_equipment"])
		assert.InDelta(t, 112.75, out["avg_flowrate"].(float64), 1e-9)
		assert.InDelta(t, 75.0, out["min_flowrate"].(float64), 1e-9)
		assert.InDelta(t, 150.5, out["max_flowrate"].(float64), 1e-9)
	})

	t.Run("idempotent", func(t *testing.T) {
		first := env.request(t, http.MethodGet, "/api/summary/"+datasetID+"/", token, nil, "")
		second := env.request(t, http.MethodGet, "/api/summary/"+datasetID+"/", token, nil, "")
		assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	})

	t.Run("other owner gets not found", func(t *testing.T) {
		_, otherToken := env.registerUser(t, "intruder")
		w := env.request(t, http.MethodGet, "/api/summary/"+datasetID+"/", otherToken, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/summary/not-a-uuid/", token, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDatasetDetailAndDelete(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	w := env.upload(t, token, "plant_a.csv", validCSV)
	require.Equal(t, http.StatusCreated, w.Code)
	datasetID := decodeJSON(t, w)["dataset"].(map[string]any)["id"].(string)

	w = env.request(t, http.MethodGet, "/api/dataset/"+datasetID+"/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	records := out["records"].([]any)
	require.Len(t, records, 2)
	assert.Equal(t, "Pump-A1", records[0].(map[string]any)["equipment_name"])

	w = env.request(t, http.MethodDelete, "/api/dataset/"+datasetID+"/", token, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Gone from history, summary answers not found, repeat delete fails.
	w = env.request(t, http.MethodGet, "/api/history/", token, nil, "")
	assert.Equal(t, float64(0), decodeJSON(t, w)["count"])

	w = env.request(t, http.MethodGet, "/api/summary/"+datasetID+"/", token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, "/api/dataset/"+datasetID+"/", token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadReport(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "operator")

	w := env.upload(t, token, "plant_a.csv", validCSV)
	require.Equal(t, http.StatusCreated, w.Code)
	datasetID := decodeJSON(t, w)["dataset"].(map[string]any)["id"].(string)

	w = env.request(t, http.MethodGet, "/api/report/"+datasetID+"/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	t.Run("other owner gets not found", func(t *testing.T) {
		_, otherToken := env.registerUser(t, "intruder")
		w := env.request(t, http.MethodGet, "/api/report/"+datasetID+"/", otherToken, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func mustUserID(t *testing.T, token string) uuid.UUID {
	t.Helper()
	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	parsed, err := uuid.Parse(claims.UserID)
	require.NoError(t, err)
	return parsed
}
