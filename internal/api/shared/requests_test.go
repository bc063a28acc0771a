package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type target struct {
		Mode string `json:"mode"`
	}

	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"mode": "echo"}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"mode": "echo",}`, // trailing comma
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
		{
			name:        "unknown field",
			requestBody: `{"mode": "echo", "priority": 9}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:        "body too large",
			requestBody: `{"mode": "` + strings.Repeat("x", MaxRequestBodyBytes) + `"}`,
			wantErr:     true,
			errContains: "too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.requestBody))

			var v target
			err := DecodeJSON(req, &v)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "echo", v.Mode)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return assert.AnError
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Mode string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(&req{Mode: "echo"}))
	assert.Error(t, ValidateRequest(&req{}))

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), assert.AnError)
}
