package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coachmybody/server/config"
	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/testutil"
	"github.com/coachmybody/server/utils"
)

type testServer struct {
	t         *testing.T
	db        *gorm.DB
	router    *gin.Engine
	users     *services.UserService
	exercises []models.Exercise
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	users := services.NewUserService(store, utils.NewTokenIssuer([]byte("test")))
	cfg := config.AppConfig{
		GinMode:            "test",
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
		GitHubClientID:     "id",
		GitHubClientSecret: "secret",
		OAuthRedirectBase:  "http://localhost:8080",
	}
	router := SetupRouter(cfg, Services{
		Users:     users,
		Routines:  services.NewRoutineService(store),
		Records:   services.NewRecordService(store),
		Exercises: services.NewExerciseService(store),
		States:    utils.NewStateStore(nil),
	})
	return &testServer{
		t:         t,
		db:        db,
		router:    router,
		users:     users,
		exercises: testutil.SeedExercises(t, db, "squat", "lunge", "press"),
	}
}

// login registers socialID and returns its access token.
func (s *testServer) login(socialID string) string {
	s.t.Helper()
	ctx := context.Background()
	_, err := s.users.Register(ctx, services.RegisterRequest{SocialID: socialID})
	require.NoError(s.t, err)
	pair, err := s.users.Login(ctx, socialID)
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (s *testServer) createRoutine(token, title string) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/routines", token, map[string]string{"title": title})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(s.t, w.Body.String())

	var list []services.RoutineSummary
	decode(s.t, s.do(http.MethodGet, "/api/v1/users/routines", token, nil), &list)
	require.NotEmpty(s.t, list)
	return list[len(list)-1].ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"social_id": "kakao-1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"social_id": "kakao-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATED_ENTITY", decode(t, w, nil).Kind)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"social_id": "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"social_id": "kakao-1"})
	require.Equal(t, http.StatusOK, w.Code)
	var pair services.TokenPair
	decode(t, w, &pair)
	assert.NotEmpty(t, pair.AccessToken)

	var validity struct {
		Valid bool `json:"valid"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/auth/token/validity", pair.AccessToken, nil), &validity)
	assert.True(t, validity.Valid)
	decode(t, s.do(http.MethodGet, "/api/v1/auth/token/validity", "garbage", nil), &validity)
	assert.False(t, validity.Valid)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var renewed services.TokenPair
	decode(t, w, &renewed)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", decode(t, w, nil).Kind)

	w = s.do(http.MethodGet, "/api/v1/users/me", renewed.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "kakao-1", me.SocialID)
	w = s.do(http.MethodGet, "/api/v1/users/me", pair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/records"},
		{http.MethodPost, "/api/v1/routines"},
		{http.MethodGet, "/api/v1/users/routines"},
		{http.MethodGet, "/api/v1/routines/1"},
		{http.MethodDelete, "/api/v1/routines"},
		{http.MethodPost, "/api/v1/routines/1/bookmark"},
		{http.MethodDelete, "/api/v1/routines/bookmark"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := s.do(tc.method, tc.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "INVALID_ACCESS_TOKEN", decode(t, w, nil).Kind)
		})
	}
}

func TestRoutineLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner")
	id := s.createRoutine(token, "Leg day")
	base := fmt.Sprintf("/api/v1/routines/%d", id)

	w := s.do(http.MethodPost, base+"/exercises", "", map[string][]uint{
		"exerciseIds": {s.exercises[0].ID, s.exercises[1].ID, s.exercises[2].ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/routines/9999/exercises", "", map[string][]uint{"exerciseIds": {s.exercises[0].ID}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, base+"/exercises", "", map[string][]uint{"exerciseIds": {}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var detail services.RoutineDetail
	decode(t, s.do(http.MethodGet, base, token, nil), &detail)
	require.Len(t, detail.Exercises, 3)
	assert.True(t, detail.IsMine)
	a, b, c := detail.Exercises[0].ID, detail.Exercises[1].ID, detail.Exercises[2].ID

	w = s.do(http.MethodPatch, "/api/v1/routines/exercises/order", "", map[string][]uint{"routineExerciseIds": {c, a, b}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, s.do(http.MethodGet, base, token, nil), &detail)
	assert.Equal(t, []uint{c, a, b}, []uint{detail.Exercises[0].ID, detail.Exercises[1].ID, detail.Exercises[2].ID})

	w = s.do(http.MethodPatch, "/api/v1/routines/exercises/order", "", map[string][]uint{"routineExerciseIds": {a}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/routines/exercises/%d", a), "", map[string]int{"count": 15, "sets": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPatch, "/api/v1/routines/exercises/9999", "", map[string]int{"count": 15})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/routines/exercises/%d", a), "", map[string]int{"count": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, base+"/title?newTitle=Leg%20day%20v2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/routines/9999/title?newTitle=x", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/routines/exercises", "", map[string][]uint{"routineExerciseIds": {b}})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/routines/exercises", "", map[string][]uint{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	decode(t, s.do(http.MethodGet, base, token, nil), &detail)
	assert.Equal(t, "Leg day v2", detail.Title)
	require.Len(t, detail.Exercises, 2)
	assert.Equal(t, 15, detail.Exercises[1].Count)
	assert.Equal(t, 3, detail.Exercises[1].Sets)

	var withExercises []services.RoutineSummary
	decode(t, s.do(http.MethodGet, "/api/v1/users/routines?hasExercise=true", token, nil), &withExercises)
	assert.Len(t, withExercises, 1)

	w = s.do(http.MethodGet, "/api/v1/routines/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRoutines(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner")
	other := s.login("other")
	mine := s.createRoutine(owner, "mine")
	theirs := s.createRoutine(other, "theirs")

	w := s.do(http.MethodDelete, "/api/v1/routines", owner, map[string][]uint{"routineIds": {mine, theirs}})
	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "INACCESSIBLE_ENTITY", decode(t, w, nil).Kind)

	w = s.do(http.MethodDelete, "/api/v1/routines", owner, map[string][]uint{"routineIds": {9999}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/routines", owner, map[string][]uint{"routineIds": {mine}})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/routines/%d", mine), owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookmarks(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner")
	fan := s.login("fan")
	id := s.createRoutine(owner, "shared")
	path := fmt.Sprintf("/api/v1/routines/%d/bookmark", id)

	var state bool
	decode(t, s.do(http.MethodPost, path, fan, nil), &state)
	assert.True(t, state)

	var page services.Page[services.RoutineSummary]
	decode(t, s.do(http.MethodGet, "/api/v1/users/bookmarks", fan, nil), &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)

	decode(t, s.do(http.MethodPost, path, fan, nil), &state)
	assert.False(t, state)
	decode(t, s.do(http.MethodGet, "/api/v1/users/bookmarks", fan, nil), &page)
	assert.Empty(t, page.Items)

	w := s.do(http.MethodPost, "/api/v1/routines/9999/bookmark", fan, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	decode(t, s.do(http.MethodPost, path, fan, nil), &state)
	require.True(t, state)
	w = s.do(http.MethodDelete, "/api/v1/routines/bookmark", fan, map[string][]uint{"routineIds": {id}})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/routines/bookmark", fan, map[string][]uint{"routineIds": {9999}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecords(t *testing.T) {
	s := newTestServer(t)
	token := s.login("athlete")

	w := s.do(http.MethodPost, "/api/v1/records", token, map[string]interface{}{
		"duration_seconds": 600,
		"exercises": []map[string]interface{}{
			{"exercise_id": s.exercises[0].ID, "count": 10, "sets": 3},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/records", token, map[string]interface{}{"exercises": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/records", token, map[string]interface{}{
		"exercises": []map[string]interface{}{{"exercise_id": 9999, "count": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var page services.Page[models.Record]
	decode(t, s.do(http.MethodGet, "/api/v1/users/records", token, nil), &page)
	assert.EqualValues(t, 1, page.Total)
}

func TestExercises(t *testing.T) {
	s := newTestServer(t)

	var list []models.Exercise
	decode(t, s.do(http.MethodGet, "/api/v1/exercises", "", nil), &list)
	assert.Len(t, list, 3)

	w := s.do(http.MethodGet, "/api/v1/exercises/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/v1/exercises/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuth(t *testing.T) {
	s := newTestServer(t)

	var redirect struct {
		URL   string `json:"authorization_url"`
		State string `json:"state"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/auth/oauth/github/login", "", nil), &redirect)
	assert.Contains(t, redirect.URL, "github.com")
	assert.Contains(t, redirect.URL, redirect.State)

	w := s.do(http.MethodGet, "/api/v1/auth/oauth/google/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "google is not configured")

	w = s.do(http.MethodGet, "/api/v1/auth/oauth/github/callback?code=x&state=forged", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/v1/auth/oauth/github/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
