package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"farecast/internal/http/middleware"
)

func newEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))
	r.GET("/ok/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/bad", func(c *gin.Context) {
		_ = c.Error(errors.New("bad input"))
		c.Status(http.StatusBadRequest)
	})
	return r
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(zap.New(core))

	assert.Equal(t, http.StatusOK, serve(r, "/ok/abc").Code)
	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok/:id", fields["path"])
	assert.Equal(t, "abc", fields["id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	assert.Equal(t, http.StatusBadRequest, serve(r, "/bad").Code)
	entries = logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["errors"], "bad input")
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(zap.New(core))

	w := serve(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic in handler").Len())
}
