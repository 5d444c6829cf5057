package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", zap.NewNop()).WithBaseURL(server.URL)
}

func TestIsMetadataMutable(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *bool
	}{
		{
			name: "explicitly immutable",
			body: `[{"onChainMetadata":{"metadata":{"isMutable":false}}}]`,
			want: boolPtr(false),
		},
		{
			name: "explicitly mutable",
			body: `[{"onChainMetadata":{"metadata":{"isMutable":true}}}]`,
			want: boolPtr(true),
		},
		{
			name: "field absent is inconclusive",
			body: `[{"onChainMetadata":{"metadata":{}}}]`,
			want: nil,
		},
		{
			name: "empty response is inconclusive",
			body: `[]`,
			want: nil,
		},
		{
			name: "missing metadata object is inconclusive",
			body: `[{"onChainMetadata":null}]`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mint := solana.NewWallet().PublicKey()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

				var request map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
				mints, ok := request["mintAccounts"].([]interface{})
				require.True(t, ok)
				assert.Equal(t, mint.String(), mints[0])

				fmt.Fprint(w, tt.body)
			})

			got, err := client.IsMetadataMutable(context.Background(), mint)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestIsMetadataMutable_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.IsMetadataMutable(context.Background(), solana.NewWallet().PublicKey())
	assert.Error(t, err)
}

func boolPtr(v bool) *bool { return &v }
