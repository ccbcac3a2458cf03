package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/canis-majoris/instantly-assignment-v3/internal/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess_MergesPayloadWithStatus(t *testing.T) {
	c, rec := newContext()

	err := Success(c, map[string]interface{}{"count": 2})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, StatusSuccess, body["status"])
	assert.Equal(t, float64(2), body["count"])
}

func TestCreated_Returns201(t *testing.T) {
	c, rec := newContext()

	err := Created(c, map[string]interface{}{"email": map[string]interface{}{"id": 1}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, StatusSuccess, decode(t, rec)["status"])
}

func TestError_MapsNotFound(t *testing.T) {
	c, rec := newContext()

	err := Error(c, apperrors.ErrEmailNotFound)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, StatusError, body["status"])
	assert.Equal(t, apperrors.CodeNotFound, body["code"])
}

func TestError_MapsInvalidInput(t *testing.T) {
	c, rec := newContext()

	err := Error(c, apperrors.ErrInvalidInput)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec)["code"])
}

func TestError_DefaultsToInternal(t *testing.T) {
	c, rec := newContext()

	err := Error(c, assert.AnError)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.CodeInternalError, decode(t, rec)["code"])
}

func TestBadRequest(t *testing.T) {
	c, rec := newContext()

	err := BadRequest(c, "id or threadId is required")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, StatusError, body["status"])
	assert.Equal(t, "id or threadId is required", body["error"])
}

func TestNotFound(t *testing.T) {
	c, rec := newContext()

	err := NotFound(c, "email not found")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "email not found", decode(t, rec)["error"])
}

func TestInternalError(t *testing.T) {
	c, rec := newContext()

	err := InternalError(c, "failed to list emails")
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, StatusError, decode(t, rec)["status"])
}
