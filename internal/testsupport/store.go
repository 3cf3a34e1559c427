package testsupport

import (
	"testing"

	"episodic/internal/config"
	"episodic/internal/library"
)

// MustOpenLibrary opens the config's library store and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.LibraryPath())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
