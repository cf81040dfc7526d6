package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSeqToken(t *testing.T) {
	token := EncodeSeqToken("2024-01-19|eod", 41)
	assert.NotEmpty(t, token, "Token should not be empty")
	assert.NotContains(t, token, "/", "Token should be URL safe")

	seq, err := DecodeSeqToken(token, "2024-01-19|eod")
	require.NoError(t, err)
	assert.Equal(t, 41, seq, "Batch ids containing the separator still round trip")
}

func TestDecodeSeqTokenError(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		batchID string
		wantMsg string
	}{
		{name: "not base64", token: "this is not base64!", batchID: "b", wantMsg: "base64 decode"},
		{name: "missing separator", token: base64.RawURLEncoding.EncodeToString([]byte("b")), batchID: "b", wantMsg: "split"},
		{name: "other batch", token: EncodeSeqToken("a", 3), batchID: "b", wantMsg: "different batch"},
		{name: "bad seq", token: base64.RawURLEncoding.EncodeToString([]byte("b|x")), batchID: "b", wantMsg: "seq parse"},
		{name: "negative seq", token: base64.RawURLEncoding.EncodeToString([]byte("b|-1")), batchID: "b", wantMsg: "seq parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSeqToken(tt.token, tt.batchID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
