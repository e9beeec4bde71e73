package report

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minewatch/minewatch-api/internal/middleware"
	"github.com/minewatch/minewatch-api/internal/pkg/jwt"
	"github.com/minewatch/minewatch-api/internal/pkg/response"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

type handlerFixture struct {
	router http.Handler
	repo   *fakeRepo
	jwt    *jwt.Service
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	jwtSvc := jwt.NewService("handler-secret", 15*time.Minute, time.Hour)
	h := NewHandler(svc, nil, testMaxPhoto)

	r := chi.NewRouter()
	r.Mount("/reports", h.Routes(middleware.OptionalAuth(jwtSvc), middleware.Auth(jwtSvc)))
	r.Post("/locate", h.Locate)

	return &handlerFixture{router: r, repo: repo, jwt: jwtSvc}
}

func (f *handlerFixture) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := f.jwt.GenerateAccessToken(uuid.New(), role)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *handlerFixture) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func jsonRequest(method, target, body, auth string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

const validReportJSON = `{
	"title": "Excavator at the river bank",
	"description": "Running since dawn",
	"location": {"latitude": 5.3, "longitude": -1.99, "name": "", "accuracy": 15},
	"images": ["https://cdn.example.org/river.jpg"]
}`

func TestCreateReportJSON(t *testing.T) {
	f := newHandlerFixture(t)

	code, env := f.do(t, jsonRequest(http.MethodPost, "/reports", validReportJSON, f.token(t, "citizen")))
	require.Equal(t, http.StatusCreated, code)

	var rep Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, StatusPending, rep.Status)
	require.NotNil(t, rep.Location)
	assert.Equal(t, "Near 5.300, -1.990 · GPS ±15m", rep.Location.Name)
}

func TestCreateReportRequiresSignIn(t *testing.T) {
	f := newHandlerFixture(t)

	for _, auth := range []string{"", "Bearer not-a-token"} {
		code, env := f.do(t, jsonRequest(http.MethodPost, "/reports", validReportJSON, auth))
		assert.Equal(t, http.StatusUnauthorized, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "AUTH_REQUIRED", env.Error.Code)
	}
	assert.Empty(t, f.repo.rows)
}

func TestCreateReportValidation(t *testing.T) {
	f := newHandlerFixture(t)

	code, env := f.do(t, jsonRequest(http.MethodPost, "/reports", `{"title":"x","location":{"latitude":0,"longitude":0}}`, f.token(t, "citizen")))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "description")
	assert.Contains(t, env.Error.Details, "location")
	assert.Contains(t, env.Error.Details, "images")

	code, _ = f.do(t, jsonRequest(http.MethodPost, "/reports", `{"title":`, f.token(t, "citizen")))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateReportMultipart(t *testing.T) {
	f := newHandlerFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Mercury in the stream"))
	require.NoError(t, mw.WriteField("description", "Water is silver"))
	require.NoError(t, mw.WriteField("latitude", "6.2"))
	require.NoError(t, mw.WriteField("longitude", "-1.6"))
	require.NoError(t, mw.WriteField("location_name", "Dunkwa"))
	fw, err := mw.CreateFormFile("photos", "stream.png")
	require.NoError(t, err)
	_, err = fw.Write(pngPhoto(t, "stream.png").Data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", f.token(t, "citizen"))

	code, env := f.do(t, req)
	require.Equal(t, http.StatusCreated, code, string(env.Data))

	var rep Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, []string{"https://storage.example/stream.png"}, rep.Images)
	assert.Equal(t, "Dunkwa", rep.Location.Name)
}

func TestCreateReportBackendError(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.err = &pq.Error{Message: `new row for relation "reports" violates check constraint`}

	code, env := f.do(t, jsonRequest(http.MethodPost, "/reports", validReportJSON, f.token(t, "citizen")))
	assert.Equal(t, http.StatusBadGateway, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BACKEND_ERROR", env.Error.Code)
	assert.Equal(t, `new row for relation "reports" violates check constraint`, env.Error.Message)
}

func TestListReports(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.rows = []Row{
		{ID: uuid.New(), Title: "pit", Status: "pending", CreatedAt: f.repo.tick()},
		{ID: uuid.New(), Title: "boat", Status: "resolved", CreatedAt: f.repo.tick()},
	}

	code, env := f.do(t, httptest.NewRequest(http.MethodGet, "/reports?status=pending", nil))
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Total)
	assert.Equal(t, "pending", env.Meta.Status)

	code, env = f.do(t, httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, env.Meta.Total)
	assert.Equal(t, StatusAll, env.Meta.Status)

	code, env = f.do(t, httptest.NewRequest(http.MethodGet, "/reports?status=archived", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "status")
}

func TestMapSummary(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.rows = []Row{{ID: uuid.New(), Title: "pit", Status: "investigating", CreatedAt: f.repo.tick()}}

	code, env := f.do(t, httptest.NewRequest(http.MethodGet, "/reports/map", nil))
	require.Equal(t, http.StatusOK, code)

	var s Summary
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Investigating)
}

func TestGetReportNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	for _, target := range []string{"/reports/not-a-uuid", "/reports/" + uuid.NewString()} {
		code, env := f.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	}
}

func TestFeedDisabledWithoutHub(t *testing.T) {
	h := NewHandler(NewService(newFakeRepo(), nil, nil, nil, testMaxPhoto), nil, testMaxPhoto)

	rec := httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/reports/feed", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusHandler(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.New()
	f.repo.rows = []Row{{ID: id, Title: "pit", Status: "pending", CreatedAt: f.repo.tick()}}
	target := "/reports/" + id.String() + "/status"

	code, _ := f.do(t, jsonRequest(http.MethodPatch, target, `{"status":"resolved"}`, ""))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = f.do(t, jsonRequest(http.MethodPatch, target, `{"status":"resolved"}`, f.token(t, "citizen")))
	assert.Equal(t, http.StatusForbidden, code)

	code, env := f.do(t, jsonRequest(http.MethodPatch, target, `{"status":"closed"}`, f.token(t, "authority")))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "status")

	code, env = f.do(t, jsonRequest(http.MethodPatch, target, `{"status":"resolved"}`, f.token(t, "authority")))
	require.Equal(t, http.StatusOK, code)
	var rep Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, StatusResolved, rep.Status)

	code, _ = f.do(t, jsonRequest(http.MethodPatch, "/reports/"+uuid.NewString()+"/status", `{"status":"resolved"}`, f.token(t, "admin")))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLocateHandler(t *testing.T) {
	f := newHandlerFixture(t)

	code, env := f.do(t, jsonRequest(http.MethodPost, "/locate", `{"latitude":5.55,"longitude":-0.2,"accuracy":30}`, ""))
	require.Equal(t, http.StatusOK, code)
	var loc LocateResponse
	require.NoError(t, json.Unmarshal(env.Data, &loc))
	assert.Equal(t, "Near 5.550, -0.200 · GPS ±30m", loc.Name)

	code, env = f.do(t, jsonRequest(http.MethodPost, "/locate", `{"latitude":120}`, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "latitude")
	assert.Contains(t, env.Error.Details, "longitude")
}
