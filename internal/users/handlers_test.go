package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := NewUserService(newSQLiteStore(t), zap.NewNop())
	router := gin.New()
	NewUserHandlers(service, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}

func johnDoe() map[string]string {
	return map[string]string{
		"first_name": "John",
		"last_name":  "Doe",
		"email":      "john@example.com",
		"age":        "1990-05-01",
	}
}

func TestUserLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/create", johnDoe())
	require.Equal(t, http.StatusCreated, w.Code)

	var created User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "John", created.FirstName)

	w = doJSON(t, router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{
		"id":         created.ID,
		"first_name": "John",
		"last_name":  "Doe",
		"email":      "john@example.com",
		"age":        "1990-05-01",
	}, list[0])

	w = doJSON(t, router, http.MethodPut, "/users/update/"+created.ID, map[string]string{"last_name": "Smith"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User - John updated successfully", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Smith", view.LastName)
	assert.Equal(t, "John", view.FirstName)
	assert.Equal(t, "1990-05-01", view.Age)

	w = doJSON(t, router, http.MethodDelete, "/users/delete/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User with id - "+created.ID+" deleted", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgUserNotFound, decodeMessage(t, w))
}

func TestCreateUserValidation(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name    string
		drop    []string
		wantMsg string
	}{
		{"missing first name", []string{"first_name"}, "Please add a first name"},
		{"missing last name", []string{"last_name"}, "Please add a last name"},
		{"missing email", []string{"email"}, "Please add an email"},
		{"missing age", []string{"age"}, "Please add the age"},
		{"last name reported before email", []string{"last_name", "email"}, "Please add a last name"},
		{"email reported before age", []string{"email", "age"}, "Please add an email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := johnDoe()
			for _, field := range tt.drop {
				delete(body, field)
			}

			w := doJSON(t, router, http.MethodPost, "/users/create", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, decodeMessage(t, w))
		})
	}

	w := doJSON(t, router, http.MethodGet, "/users", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreateUserEmptyBody(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/create", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please add a first name", decodeMessage(t, w))
}

func TestCreateUserInvalidBody(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeMessage(t, w))
}

func TestCreateUserInvalidAge(t *testing.T) {
	router := setupTestRouter(t)

	body := johnDoe()
	body["age"] = "next tuesday"
	w := doJSON(t, router, http.MethodPost, "/users/create", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please add a valid age", decodeMessage(t, w))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/create", johnDoe())
	require.Equal(t, http.StatusCreated, w.Code)

	dup := johnDoe()
	dup["first_name"] = "Johnny"
	w = doJSON(t, router, http.MethodPost, "/users/create", dup)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodGet, "/users", nil)
	var list []UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "John", list[0].FirstName)
}

func TestCreateUserFormEncoded(t *testing.T) {
	router := setupTestRouter(t)

	form := url.Values{}
	for k, v := range johnDoe() {
		form.Set(k, v)
	}

	req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var created User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "john@example.com", created.Email)
}

func TestUpdateUserKeepsOmittedFields(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/create", johnDoe())
	require.Equal(t, http.StatusCreated, w.Code)
	var created User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPut, "/users/update/"+created.ID, map[string]string{"first_name": "X"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User - X updated successfully", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil)
	var view UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, UserView{
		ID:        created.ID,
		FirstName: "X",
		LastName:  "Doe",
		Email:     "john@example.com",
		Age:       "1990-05-01",
	}, view)

	w = doJSON(t, router, http.MethodPut, "/users/update/"+created.ID, map[string]string{"age": "1985-09-03"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "1985-09-03", view.Age)
}

func TestUpdateUserEmailCollision(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/create", johnDoe())
	require.Equal(t, http.StatusCreated, w.Code)

	jane := johnDoe()
	jane["first_name"], jane["email"] = "Jane", "jane@example.com"
	w = doJSON(t, router, http.MethodPost, "/users/create", jane)
	require.Equal(t, http.StatusCreated, w.Code)
	var created User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPut, "/users/update/"+created.ID, map[string]string{"email": "john@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, w))
}

func TestMissingUserIsNotFound(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/users/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodPut, "/users/update/does-not-exist", map[string]string{"first_name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeMessage(t, w))

	w = doJSON(t, router, http.MethodDelete, "/users/delete/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeMessage(t, w))
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForError(NewUserValidationError(MsgAgeRequired)))
	assert.Equal(t, http.StatusBadRequest, StatusForError(NewUserAlreadyExistsError(nil)))
	assert.Equal(t, http.StatusNotFound, StatusForError(NewUserNotFoundError("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(&UserError{Type: "unknown"}))
}
