package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name        string
		write       func(*gin.Context)
		wantStatus  int
		wantSuccess bool
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"a": 1}) }, http.StatusOK, true},
		{"fail", func(c *gin.Context) { Fail(c, 40001, "nope") }, http.StatusOK, false},
		{"error", func(c *gin.Context) { Error(c, http.StatusForbidden, 40300, "forbidden") }, http.StatusForbidden, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.write(c)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d", w.Code)
			}
			var body JSONResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Success != tc.wantSuccess {
				t.Fatalf("success = %v", body.Success)
			}
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
				t.Fatal(err)
			}
			for _, k := range []string{"code", "success", "message", "data"} {
				if _, ok := raw[k]; !ok {
					t.Fatalf("envelope misses %q: %s", k, w.Body.String())
				}
			}
		})
	}
}
