// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileKind distinguishes regular files from folders.
type FileKind string

const (
	KindFile   FileKind = "file"
	KindFolder FileKind = "folder"
)

// FileRecord describes one file or folder owned by a user. For regular
// files with content, exactly one of Content or StorageKey is set: small
// content lives inline in the record, larger content lives in the object
// store under StorageKey. Folders carry neither.
type FileRecord struct {
	// ID is the record's UUID.
	ID string
	// OwnerID is the owning user; every read is scoped by it.
	OwnerID string
	// WorkspaceID optionally places the file inside a workspace.
	WorkspaceID *string
	// ParentID references the containing folder, nil at root.
	ParentID *string

	Name string
	Kind FileKind
	// Size is the content length in bytes, 0 for folders.
	Size int64
	// Path is the slash-separated logical path, unique per
	// (owner, workspace). A child's path extends its parent's by "/<name>".
	Path string

	// Content holds inline file bytes when the file is stored inline.
	Content []byte
	// StorageKey is the object-store key when the file is stored externally.
	StorageKey *string
	// StorageURL is the object's public URL, derived from StorageKey.
	StorageURL *string

	// IsPublic is a sharing hint recorded for the API layer; the storage
	// core does not enforce it.
	IsPublic bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFolder reports whether the record is a folder.
func (f *FileRecord) IsFolder() bool { return f.Kind == KindFolder }

// StoredExternally reports whether content lives in the object store.
func (f *FileRecord) StoredExternally() bool {
	return f.StorageKey != nil && *f.StorageKey != ""
}
