package port

import "context"

// FileStorage stores evidence uploads and generated release forms as
// blobs. Callers address files by slash-relative paths under the
// storage root, e.g. "evidence/2026-02-01/ev-1_receipt.pdf".
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// FolderManager prepares directories under the storage root
type FolderManager interface {
	CreateFolder(ctx context.Context, name string) (string, error)
}
