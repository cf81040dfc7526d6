package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeSeqToken creates an opaque cursor pointing after the item at seq
// within one batch.
func EncodeSeqToken(batchID string, seq int) string {
	tokenStr := fmt.Sprintf("%s|%d", batchID, seq)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeSeqToken parses a cursor made by EncodeSeqToken. The token must have
// been issued for batchID.
func DecodeSeqToken(token, batchID string) (int, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	idx := strings.LastIndex(tokenStr, "|")
	if idx < 0 {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	if tokenStr[:idx] != batchID {
		return 0, fmt.Errorf("pagination token was issued for a different batch")
	}

	seq, err := strconv.Atoi(tokenStr[idx+1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("invalid pagination token format (seq parse)")
	}
	return seq, nil
}
