package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestMapTxError(t *testing.T) {
	// Serialization failures and deadlocks both map to the retryable sentinel.
	for _, code := range []pq.ErrorCode{"40001", "40P01"} {
		err := mapTxError(fmt.Errorf("commit: %w", &pq.Error{Code: code}))
		if !errors.Is(err, ErrStaleState) {
			t.Errorf("code %s: got %v, want ErrStaleState", code, err)
		}
	}

	cause := errors.New("connection reset")
	err := mapTxError(cause)
	if errors.Is(err, ErrStaleState) {
		t.Errorf("generic error mapped to ErrStaleState: %v", err)
	}
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal wrap, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("underlying cause lost: %v", err)
	}
}
