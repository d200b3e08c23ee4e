package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobboard/accounts"
	"jobboard/applications"
	"jobboard/cache"
	"jobboard/database/memstore"
	"jobboard/handlers"
	"jobboard/jobs"
	"jobboard/middleware"
	"jobboard/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New()
	sessions := session.NewManager("routes-secret", time.Hour, cache.NewMemory())

	joiner := jobs.NewCompanyJoiner(store, cache.NewMemory(), time.Minute, logger)
	jobSvc := jobs.NewService(store, store, nil, logger, jobs.WithJoiner(joiner))
	h := &handlers.Handler{
		Accounts: accounts.NewService(store, sessions, logger,
			accounts.WithBcryptCost(bcrypt.MinCost),
			accounts.WithCompanyCache(joiner),
			accounts.WithAdminEmails(func(e string) bool { return e == "admin@jobboard.io" })),
		Jobs:         jobSvc,
		Applications: applications.NewService(store, store, jobSvc, nil, logger),
		Logger:       logger,
	}
	router := SetupRouter(h, Options{
		CORSOrigins: []string{"http://localhost:3000"},
		Sessions:    sessions,
		RateLimiter: middleware.NewIPRateLimiter(1000, time.Minute),
	})
	return &api{t: t, router: router}
}

func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *api) serve(req *http.Request) (int, map[string]interface{}) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (a *api) signup(body map[string]interface{}) (token string, profile map[string]interface{}) {
	a.t.Helper()
	code, res := a.do(http.MethodPost, "/api/signup", "", body)
	require.Equal(a.t, http.StatusCreated, code, res)
	return res["token"].(string), res["profile"].(map[string]interface{})
}

func (a *api) apply(token, jobID string, withResume bool) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(a.t, mw.WriteField("job_id", jobID))
	if withResume {
		fw, err := mw.CreateFormFile("resume", "cv.pdf")
		require.NoError(a.t, err)
		_, err = fw.Write([]byte("%PDF-1.4"))
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return a.serve(req)
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)

	employer, emp := a.signup(map[string]interface{}{
		"email": "hr@startup.io", "password": "secret1", "role": "employer",
		"company_name": "Acme", "industry": "Robotics",
	})
	assert.Regexp(t, `^CMP_[0-9a-f]{6}$`, emp["company_id"])
	assert.NotContains(t, emp, "password_hash")

	admin, _ := a.signup(map[string]interface{}{"email": "admin@jobboard.io", "password": "secret1", "role": "admin"})
	student, stu := a.signup(map[string]interface{}{"email": "kim@uni.edu", "password": "secret1", "role": "student"})
	assert.Regexp(t, `^USR_[0-9a-f]{6}$`, stu["user_id"])

	code, res := a.do(http.MethodPost, "/api/jobs", employer, map[string]interface{}{
		"title": "Intern", "job_description": "Build robots", "location": "Remote",
		"skills_required": []string{"Go", "ROS"},
	})
	require.Equal(t, http.StatusCreated, code, res)
	jobID := res["job"].(map[string]interface{})["job_id"].(string)

	code, res = a.do(http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), res["count"])

	code, _ = a.do(http.MethodPost, "/api/jobs", student, map[string]interface{}{"title": "x", "job_description": "y", "location": "z"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPost, "/api/admin/jobs/"+jobID+"/approve", employer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, res = a.do(http.MethodPost, "/api/admin/jobs/"+jobID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "admin@jobboard.io", res["job"].(map[string]interface{})["approved_by"])

	code, res = a.do(http.MethodPost, "/api/admin/jobs/"+jobID+"/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", res["code"])

	code, res = a.do(http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), res["count"])
	listing := res["jobs"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, jobID, listing["job_id"])
	assert.Equal(t, "Acme", listing["company"].(map[string]interface{})["company_name"])
	assert.Equal(t, []interface{}{"Go", "ROS"}, listing["skills"])

	code, res = a.do(http.MethodGet, "/api/jobs?q=robots&industry=robotics", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), res["count"])
	code, res = a.do(http.MethodGet, "/api/jobs?location=Tokyo", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), res["count"])

	code, _ = a.apply(student, jobID, false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = a.apply(student, jobID, true)
	require.Equal(t, http.StatusCreated, code, res)
	assert.Equal(t, stu["user_id"], res["application"].(map[string]interface{})["user_id"])

	code, res = a.do(http.MethodGet, "/api/jobs/"+jobID+"/applications", employer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["applications"], 1)

	code, res = a.do(http.MethodGet, "/api/my/applications", student, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["applications"], 1)

	// editing sends the posting back to review
	code, _ = a.do(http.MethodPut, "/api/jobs/"+jobID, employer, map[string]interface{}{"location": "Berlin"})
	require.Equal(t, http.StatusOK, code)
	code, res = a.do(http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), res["count"])

	code, res = a.do(http.MethodGet, "/api/employer/jobs", employer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["pending"], 1)
	assert.Len(t, res["approved"], 0)
}

func TestAuthRoutes(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup(map[string]interface{}{"email": "kim@uni.edu", "password": "secret1", "role": "student"})

	code, res := a.do(http.MethodPost, "/api/signup", "", map[string]interface{}{"email": "kim@uni.edu", "password": "secret1", "role": "student"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH", res["code"])
	assert.Equal(t, "Email already in use", res["error"])

	code, _ = a.do(http.MethodPost, "/api/signup", "", map[string]interface{}{"email": "weak@uni.edu", "password": "123", "role": "student"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/login", "", map[string]interface{}{"email": "kim@uni.edu", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res = a.do(http.MethodPost, "/api/login", "", map[string]interface{}{"email": "kim@uni.edu", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "student", res["role"])

	code, res = a.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "kim@uni.edu", res["email"])

	code, res = a.do(http.MethodPut, "/api/me", token, map[string]interface{}{"university": "MIT"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "MIT", res["profile"].(map[string]interface{})["university"])

	code, _ = a.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodGet, "/api/google/auth-url", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = a.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminListsUsers(t *testing.T) {
	a := newAPI(t)
	student, _ := a.signup(map[string]interface{}{"email": "kim@uni.edu", "password": "secret1", "role": "student"})
	admin, _ := a.signup(map[string]interface{}{"email": "admin@jobboard.io", "password": "secret1", "role": "admin"})

	code, _ := a.do(http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodGet, "/api/admin/users", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var res struct {
		Users []map[string]interface{} `json:"users"`
		Count int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Count)
	var emails []string
	for _, u := range res.Users {
		emails = append(emails, u["email"].(string))
	}
	assert.ElementsMatch(t, []string{"kim@uni.edu", "admin@jobboard.io"}, emails)
}
