package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/metrics"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, dto.ErrPayloadTooLarge)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrPayloadTooLarge.Code, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestHandleServiceError_CountsKind(t *testing.T) {
	before := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("Unrecoverable"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handleServiceError(c, errors.ErrHashedUnrecoverable)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("Unrecoverable")))
	assert.Len(t, c.Errors, 1)
}

func TestGetTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.Equal(t, "", GetTraceID(c))

	c.Set("trace_id", "abc")
	assert.Equal(t, "abc", GetTraceID(c))
}
