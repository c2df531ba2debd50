package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(t *testing.T, h gin.HandlerFunc) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestSuccess(t *testing.T) {
	status, resp := perform(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, map[string]any{"id": float64(1)}, resp.Data)
}

func TestErrorLogsServerCause(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Logger()
	logger.SetLogger(logger.NewTestLogger(&buf))
	defer logger.SetLogger(prev)

	_, resp := perform(t, func(c *gin.Context) {
		Error(c, apperrors.WrapCode(errors.New("connection refused"), apperrors.ErrCodeDatabaseError, "数据库错误"))
	})
	assert.Equal(t, apperrors.ErrCodeDatabaseError, resp.Code)
	assert.Equal(t, "数据库错误", resp.Message)
	assert.Contains(t, buf.String(), "connection refused")

	buf.Reset()
	_, resp = perform(t, func(c *gin.Context) { Error(c, apperrors.ErrBookNotFound) })
	assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)
	assert.Empty(t, buf.String(), "客户端错误不记录日志")
}

func TestFail(t *testing.T) {
	_, resp := perform(t, func(c *gin.Context) {
		Fail(c, apperrors.ErrCodeInsufficientStock, "库存不足", []int{1, 2})
	})
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, resp.Code)
	assert.Len(t, resp.Data, 2)
}

func TestNewPageData(t *testing.T) {
	assert.Equal(t, 3, NewPageData(nil, 21, 1, 10).TotalPages)
	assert.Equal(t, 2, NewPageData(nil, 20, 1, 10).TotalPages)
	assert.Equal(t, 0, NewPageData(nil, 0, 1, 10).TotalPages)
	assert.Equal(t, 0, NewPageData(nil, 5, 1, 0).TotalPages)
}
