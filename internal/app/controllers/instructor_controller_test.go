package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/peerfeedback/internal/app/controllers"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/repositories/memory"
	"github.com/yigit/peerfeedback/internal/app/routes"
	"github.com/yigit/peerfeedback/internal/app/services"
	"github.com/yigit/peerfeedback/internal/middleware"
	"github.com/yigit/peerfeedback/internal/pkg/auth"
	"github.com/yigit/peerfeedback/internal/pkg/keycrypt"
)

type apiEnv struct {
	router  *gin.Engine
	jwt     *auth.JWTService
	service services.InstructorService
	courses *services.CourseService
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	cipher, err := keycrypt.New("controller-test-secret")
	require.NoError(t, err)

	courses := services.NewCourseService(store)
	svc := services.NewInstructorService(services.InstructorServiceDeps{
		Store:      store,
		Tx:         store,
		Courses:    courses,
		Accounts:   services.NewAccountService(store),
		Sessions:   services.NewFeedbackSessionService(store, zerolog.Nop()),
		Comments:   services.NewFeedbackCommentService(store, zerolog.Nop()),
		KeyCipher:  cipher,
		MaxResults: 50,
		Logger:     zerolog.Nop(),
	})
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "controller-test", AccessTokenExp: time.Hour, TokenIssuer: "peerfeedback"})

	router := gin.New()
	routes.SetupRouter(router, controllers.NewInstructorController(svc), middleware.NewAuthMiddleware(jwtService, svc))

	return &apiEnv{router: router, jwt: jwtService, service: svc, courses: courses}
}

func (e *apiEnv) token(t *testing.T, googleID string, role models.UserRole) string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken(&models.Account{GoogleID: googleID, Email: googleID + "@uni.edu"}, role)
	require.NoError(t, err)
	return token
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) seedCourse(t *testing.T, courseID, email, googleID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.courses.CreateCourse(ctx, &models.Course{ID: courseID, Name: "Course " + courseID}))
	_, err := e.service.CreateInstructor(ctx, &models.Instructor{
		CourseID: courseID, Email: email, GoogleID: googleID, Name: "Jane Doe",
		Role: models.RoleCoowner, IsDisplayedToStudents: true,
	})
	require.NoError(t, err)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details any    `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	e := newAPIEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCourseRoutesRequireAuthAndMembership(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")

	w := e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors", e.token(t, "mallory", models.UserRoleInstructor), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors", e.token(t, "jane", models.UserRoleInstructor), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors", e.token(t, "root", models.UserRoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateInstructorAndConflict(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")
	token := e.token(t, "jane", models.UserRoleInstructor)

	body := map[string]any{
		"email":                 "bob@uni.edu",
		"name":                  "Bob",
		"role":                  "Tutor",
		"isDisplayedToStudents": true,
	}
	w := e.do(t, http.MethodPost, "/api/v1/courses/CS101/instructors", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Email        string `json:"email"`
		IsRegistered bool   `json:"isRegistered"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "bob@uni.edu", created.Email)
	assert.False(t, created.IsRegistered)
	assert.NotContains(t, w.Body.String(), "registration")

	w = e.do(t, http.MethodPost, "/api/v1/courses/CS101/instructors", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateInstructorRejectsBadBody(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")

	w := e.do(t, http.MethodPost, "/api/v1/courses/CS101/instructors", e.token(t, "jane", models.UserRoleInstructor), map[string]any{
		"email": "not-an-email",
		"name":  "Bob",
		"role":  "Janitor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", decode(t, w).Error.Code)
}

func TestHidingLastDisplayedInstructorReturns422(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")

	w := e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me", e.token(t, "jane", models.UserRoleInstructor), map[string]any{
		"email":                 "jane@uni.edu",
		"name":                  "Jane Doe",
		"role":                  "Co-owner",
		"isDisplayedToStudents": false,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestJoinByEncryptedKey(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")

	w := e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors/key?email=jane@uni.edu", e.token(t, "jane", models.UserRoleInstructor), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var key struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &key))

	w = e.do(t, http.MethodGet, "/api/v1/join?key="+key.Key, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/join?key=bogus", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateInstructorData(t *testing.T) {
	e := newAPIEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/instructors/validate", "", map[string]string{
		"name": "", "institute": "National University", "email": "jane@uni.edu",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Valid    bool     `json:"valid"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.False(t, result.Valid)
	assert.Len(t, result.Messages, 1)
}

func TestAdminRoutes(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")

	w := e.do(t, http.MethodGet, "/api/v1/admin/instructors/search?q=jane", e.token(t, "jane", models.UserRoleInstructor), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := e.token(t, "root", models.UserRoleAdmin)
	w = e.do(t, http.MethodGet, "/api/v1/admin/instructors/search?q=JANE", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found struct {
		Instructors []map[string]any `json:"instructors"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &found))
	assert.Len(t, found.Instructors, 1)

	w = e.do(t, http.MethodPost, "/api/v1/courses/CS101/instructors/reset-google-id", admin, map[string]string{"email": "jane@uni.edu"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/courses/CS101/instructors?email=jane@uni.edu", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodDelete, "/api/v1/courses/CS101/instructors?email=jane@uni.edu", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMyCoursesAndIsNew(t *testing.T) {
	e := newAPIEnv(t)
	token := e.token(t, "jane", models.UserRoleInstructor)

	w := e.do(t, http.MethodGet, "/api/v1/instructors/me/is-new", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isNew":true}`, string(decode(t, w).Data))

	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")
	w = e.do(t, http.MethodGet, "/api/v1/instructors/me/courses?omitArchived=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Instructors []map[string]any `json:"instructors"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &mine))
	assert.Len(t, mine.Instructors, 1)

	w = e.do(t, http.MethodGet, "/api/v1/instructors/me/courses?omitArchived=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (e *apiEnv) addInstructor(t *testing.T, courseID, email, googleID string, role models.InstructorRole) {
	t.Helper()
	_, err := e.service.CreateInstructor(context.Background(), &models.Instructor{
		CourseID: courseID, Email: email, GoogleID: googleID, Name: "Olga Observer",
		Role: role, IsDisplayedToStudents: true,
	})
	require.NoError(t, err)
}

func TestProfileEditsKeepArchiveStatus(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")
	token := e.token(t, "jane", models.UserRoleInstructor)
	ctx := context.Background()

	w := e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me/archive", token, map[string]bool{"archived": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me", token, map[string]any{
		"email":                 "jane@uni.edu",
		"name":                  "Jane Renamed",
		"role":                  "Co-owner",
		"isDisplayedToStudents": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := e.service.GetInstructorForGoogleID(ctx, "CS101", "jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane Renamed", stored.Name)
	assert.True(t, stored.IsArchived)

	w = e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/by-email", token, map[string]any{
		"email":                 "jane@uni.edu",
		"googleId":              "jane",
		"name":                  "Jane Doe",
		"role":                  "Co-owner",
		"isDisplayedToStudents": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err = e.service.GetInstructorForEmail(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	assert.True(t, stored.IsArchived)
}

func TestObserverCannotModifyInstructors(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")
	e.addInstructor(t, "CS101", "olga@uni.edu", "olga", models.RoleObserver)
	observer := e.token(t, "olga", models.UserRoleInstructor)
	ctx := context.Background()

	w := e.do(t, http.MethodPost, "/api/v1/courses/CS101/instructors", observer, map[string]any{
		"email": "bob@uni.edu", "name": "Bob", "role": "Co-owner", "isDisplayedToStudents": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/by-email", observer, map[string]any{
		"email": "jane@uni.edu", "googleId": "olga", "name": "Jane Doe", "role": "Co-owner", "isDisplayedToStudents": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors/key?email=jane@uni.edu", observer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/courses/CS101/instructors?email=jane@uni.edu", observer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	jane, err := e.service.GetInstructorForEmail(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	require.NotNil(t, jane)
	assert.Equal(t, "jane", jane.GoogleID)

	w = e.do(t, http.MethodGet, "/api/v1/courses/CS101/instructors", observer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestObserverCannotPromoteThemselves(t *testing.T) {
	e := newAPIEnv(t)
	e.seedCourse(t, "CS101", "jane@uni.edu", "jane")
	e.addInstructor(t, "CS101", "olga@uni.edu", "olga", models.RoleObserver)
	observer := e.token(t, "olga", models.UserRoleInstructor)
	ctx := context.Background()

	w := e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me", observer, map[string]any{
		"email": "olga@uni.edu", "name": "Olga Observer", "role": "Co-owner", "isDisplayedToStudents": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_009", decode(t, w).Error.Code)

	w = e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me", observer, map[string]any{
		"email": "olga@uni.edu", "name": "Olga Observer", "role": "Custom", "isDisplayedToStudents": true,
		"privileges": map[string]bool{models.PrivilegeModifyInstructor: true},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := e.service.GetInstructorForGoogleID(ctx, "CS101", "olga")
	require.NoError(t, err)
	assert.Equal(t, models.RoleObserver, stored.Role)
	assert.False(t, stored.HasCoownerPrivileges())

	w = e.do(t, http.MethodPut, "/api/v1/courses/CS101/instructors/me", observer, map[string]any{
		"email": "olga@uni.edu", "name": "Olga Renamed", "role": "Observer", "isDisplayedToStudents": true,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
