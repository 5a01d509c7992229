package handlers_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAPIGatewayProxy(t *testing.T) {
	h := newMapHandlers(10)
	ctx := context.Background()
	saveBody := `{"urlId":"abc123","target":"https://example.com"}`

	testCases := []struct {
		name  string
		event events.APIGatewayProxyRequest
		want  want
	}{
		{
			name:  "health",
			event: events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/health"},
			want:  want{code: http.StatusOK, body: ""},
		},
		{
			name: "save with base64 body",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/url",
				Body:            base64.StdEncoding.EncodeToString([]byte(saveBody)),
				IsBase64Encoded: true,
			},
			want: want{
				code: http.StatusOK,
				body: `{"Operation":"SAVE","Message":"SUCCESS","Item":{"target":"https://example.com","urlId":"abc123"}}`,
			},
		},
		{
			name: "get saved record",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				Path:                  "/url",
				QueryStringParameters: map[string]string{"urlId": "abc123"},
			},
			want: want{code: http.StatusOK, body: `{"target":"https://example.com","urlId":"abc123"}`},
		},
		{
			name: "invalid base64 body",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/url",
				Body:            "%%%",
				IsBase64Encoded: true,
			},
			want: want{code: http.StatusBadRequest},
		},
		{
			name:  "unrouted",
			event: events.APIGatewayProxyRequest{HTTPMethod: http.MethodPut, Path: "/url"},
			want:  want{code: http.StatusMethodNotAllowed, body: `{"Message":"method PUT not allowed for /url"}`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := h.HandleAPIGatewayProxy(ctx, tc.event)
			require.NoError(t, err)

			assert.Equal(t, tc.want.code, resp.StatusCode)
			if tc.want.body != "" || tc.want.code == http.StatusOK {
				assert.Equal(t, tc.want.body, resp.Body)
			}
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
		})
	}
}
