package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, gin.H{"answer": 42})

	assert.Equal(t, http.StatusOK, w.Code)

	var parsed APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, CodeOK, parsed.Code)
	assert.Equal(t, "ok", parsed.Message)
	assert.NotNil(t, parsed.Data)
}

func TestErrorEnvelopeOmitsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, http.StatusTooManyRequests, CodeQuotaExceeded, "daily message quota exceeded")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"code":42901,"message":"daily message quota exceeded"}`, w.Body.String())
}
