package testsupport

import (
	"testing"

	"vgrid/internal/config"
	"vgrid/internal/intervalstore"
	"vgrid/internal/logging"
)

// MustOpenStore opens the configured annotation store and closes it when the
// test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *intervalstore.Store {
	t.Helper()
	store, err := intervalstore.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
