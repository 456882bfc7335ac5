package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/daily-lottery-backend/internal/middleware"
	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories/memory"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
	"github.com/ArowuTest/daily-lottery-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type testServer struct {
	router  *gin.Engine
	ballots *memory.BallotRepository
	tokens  *jwt.TokenService
}

// newTestServer wires the handlers the way the router does, with the clock
// fixed at 2023-05-10 14:30 UTC.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()
	users := memory.NewUserRepository()
	ballots := memory.NewBallotRepository()
	tokens := jwt.NewTokenService("secret", time.Hour)
	clock := fixedClock(time.Date(2023, 5, 10, 14, 30, 0, 0, time.UTC))

	ballotSvc := services.NewBallotService(ballots, services.NewDrawEngine(), clock, log)
	authH := NewAuthHandler(services.NewAuthService(users, tokens, log), log)
	userH := NewUserHandler(services.NewUserService(users), log)
	ballotH := NewBallotHandler(ballotSvc, log)

	r := gin.New()
	r.POST("/user/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	authed := r.Group("/", middleware.JWTAuthMiddleware(tokens, log))
	authed.GET("/user/me", userH.GetMe)
	authed.POST("/ballot/submit", ballotH.Submit)
	authed.GET("/ballot/list", ballotH.List)
	authed.GET("/ballot/winner", ballotH.Winner)
	authed.GET("/ballot/state", ballotH.State)
	authed.POST("/admin/draw", middleware.AdminOnly([]string{"root"}), ballotH.Draw)

	return &testServer{router: r, ballots: ballots, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, target, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/user/register", "",
		`{"username":"`+username+`","password":"s3cret!","full_name":"Test User"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", `{"username":"`+username+`","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	assert.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

func TestAuthHandlers(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada")

	w := s.do(t, http.MethodPost, "/user/register", "", `{"username":"ada","password":"another","full_name":"Ada"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/user/register", "", `{"username":"bob"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", `{"username":"ada","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/user/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me models.UserOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "ada", me.Username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestLogin_FormEncoded(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "ada")

	form := url.Values{"username": {"ada"}, "password": {"s3cret!"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestBallotHandlers_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada")

	w := s.do(t, http.MethodPost, "/ballot/submit?ballot=1234567891234567&date=2023-05-11", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result models.OperationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.ResultSuccessful, result.Result)

	w = s.do(t, http.MethodPost, "/ballot/submit?ballot=1234567891234567&date=2023-05-11", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/ballot/list?date=2023-05-11", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["1234567891234567"]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/ballot/winner?date=2023-05-11", token, "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = s.do(t, http.MethodGet, "/ballot/state?date=2023-05-11", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2023-05-11","state":"OPEN"}`, w.Body.String())
}

func TestBallotHandlers_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada")
	yesterday := time.Date(2023, 5, 9, 0, 0, 0, 0, time.UTC)
	for _, n := range []string{"1111111111111111", "2222222222222222"} {
		require.NoError(t, s.ballots.Insert(context.Background(), &models.Ballot{UserID: "u", Number: n, Date: yesterday}))
	}

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"no token", http.MethodGet, "/ballot/list?date=2023-05-11", http.StatusUnauthorized},
		{"malformed date", http.MethodGet, "/ballot/list?date=10-05-2023", http.StatusUnprocessableEntity},
		{"missing date", http.MethodGet, "/ballot/winner", http.StatusUnprocessableEntity},
		{"missing ballot", http.MethodPost, "/ballot/submit?date=2023-05-11", http.StatusUnprocessableEntity},
		{"bad ballot format", http.MethodPost, "/ballot/submit?ballot=12ab&date=2023-05-11", http.StatusPreconditionFailed},
		{"submit for today", http.MethodPost, "/ballot/submit?ballot=1234567891234567&date=2023-05-10", http.StatusPreconditionFailed},
		{"winner with no ballots", http.MethodGet, "/ballot/winner?date=2023-05-08", http.StatusNotFound},
		{"winner of undrawn day", http.MethodGet, "/ballot/winner?date=2023-05-09", http.StatusInternalServerError},
		{"draw by non admin", http.MethodPost, "/admin/draw?date=2023-05-09", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.name == "no token" {
				tok = ""
			}
			w := s.do(t, tt.method, tt.target, tok, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestBallotHandlers_AdminDraw(t *testing.T) {
	s := newTestServer(t)
	root := s.registerAndLogin(t, "root")
	yesterday := time.Date(2023, 5, 9, 0, 0, 0, 0, time.UTC)
	for _, n := range []string{"1111111111111111", "2222222222222222", "3333333333333333"} {
		require.NoError(t, s.ballots.Insert(context.Background(), &models.Ballot{UserID: "u", Number: n, Date: yesterday}))
	}

	w := s.do(t, http.MethodGet, "/ballot/state?date=2023-05-09", root, "")
	assert.JSONEq(t, `{"date":"2023-05-09","state":"CLOSED_UNDRAWN"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/admin/draw?date=2023-05-11", root, "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = s.do(t, http.MethodPost, "/admin/draw?date=2023-05-09", root, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var outcome models.DrawOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, 3, outcome.Participants)
	assert.EqualValues(t, 2, outcome.Removed)

	w = s.do(t, http.MethodGet, "/ballot/winner?date=2023-05-09", root, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), outcome.WinningBallot)

	w = s.do(t, http.MethodGet, "/ballot/state?date=2023-05-09", root, "")
	assert.JSONEq(t, `{"date":"2023-05-09","state":"CLOSED_DRAWN"}`, w.Body.String())
}
