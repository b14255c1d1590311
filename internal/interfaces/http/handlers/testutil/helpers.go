// Package testutil builds gin contexts for handler tests and decodes the response envelope.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestContext returns a context for one request. body may be nil, a raw JSON string, or
// any value that is marshalled to JSON.
func NewTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	reader, isJSON := requestBody(body)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	if isJSON {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func requestBody(body interface{}) (io.Reader, bool) {
	switch b := body.(type) {
	case nil:
		return nil, false
	case string:
		return strings.NewReader(b), true
	case []byte:
		return strings.NewReader(string(b)), true
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(fmt.Sprintf("testutil: cannot marshal request body: %v", err))
		}
		return strings.NewReader(string(data)), true
	}
}

// SetURLParam adds a route parameter as gin's router would.
func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func ParseResponse(w *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// DecodeData unwraps the envelope and decodes its data field into T.
func DecodeData[T any](w *httptest.ResponseRecorder) (T, APIResponse, error) {
	var (
		out  T
		resp APIResponse
	)
	if err := ParseResponse(w, &resp); err != nil {
		return out, resp, err
	}
	if len(resp.Data) == 0 {
		return out, resp, nil
	}
	err := json.Unmarshal(resp.Data, &out)
	return out, resp, err
}

// APIResponse is utils.APIResponse with the data left raw.
type APIResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ErrorInfo      `json:"error,omitempty"`
	Message   string          `json:"message,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
