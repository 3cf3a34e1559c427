package pipeline

import "testing"

func TestCancelToken(t *testing.T) {
	var nilToken *CancelToken
	if nilToken.Cancelled() {
		t.Fatal("nil token reported cancelled")
	}
	nilToken.Cancel()

	token := NewCancelToken()
	if token.Cancelled() {
		t.Fatal("fresh token reported cancelled")
	}
	token.Cancel()
	token.Cancel()
	if !token.Cancelled() {
		t.Fatal("token not cancelled after Cancel")
	}
	select {
	case <-token.Done():
	default:
		t.Fatal("Done not closed")
	}

	var zero CancelToken
	zero.Cancel()
	if !zero.Cancelled() {
		t.Fatal("zero-value token not cancelled")
	}
}
