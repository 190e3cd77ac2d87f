package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"vgrid/internal/intervalstore"
	"vgrid/internal/logging"
)

// CheckDirectoryAccess verifies path is a directory the process can read,
// write and traverse.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStore opens the annotation store, applying pending migrations, and
// reports its schema version.
func CheckStore(ctx context.Context, path string) Result {
	const name = "Annotation store"

	store, err := intervalstore.OpenPath(path, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	tracks, err := store.Tracks(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema %s, %d tracks)", path, version, len(tracks))}
}
