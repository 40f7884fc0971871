// Package upload pushes the results database to remote storage so
// runs from different hosts can be compared.
package upload

import "context"

// Uploader pushes local result files to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and
	// writable. Writes a small test object to fail fast on
	// misconfiguration.
	Preflight(ctx context.Context) error

	// UploadFile uploads a single local file under the configured
	// prefix, keyed by its base name.
	UploadFile(ctx context.Context, localPath string) error
}
