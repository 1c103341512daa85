// Package remote defines the contract between the sync engine and the
// remote file bundle: the transfer types, the Store interface and the error
// taxonomy every store implementation reports through.
package remote

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
)

// Extension is the suffix (case-insensitive) of bundle files that take part
// in a pull.
const Extension = ".json"

// Store pushes single files to the bundle and pulls the whole bundle back.
type Store interface {
	// Push replaces the content of record.FileName in the bundle.
	Push(ctx context.Context, record TransferRecord) error

	// Pull fetches the bundle once and returns its files as a single-pass
	// sequence. A file whose content cannot be restored is yielded as a
	// *FileError and the sequence continues with the next file.
	Pull(ctx context.Context) (iter.Seq2[File, error], error)
}

// TransferRecord is a local file about to be pushed.
type TransferRecord struct {
	// Path is the absolute path of the local file.
	Path string
	// FileName is the final path segment, used as the bundle file name.
	FileName string
	// Body is the raw file content.
	Body string
}

// NewTransferRecord builds a record for path. It fails when path has no
// usable final segment (empty, root, "." or "..").
func NewTransferRecord(path, body string) (TransferRecord, error) {
	name := filepath.Base(path)
	if path == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return TransferRecord{}, fmt.Errorf("path %q does not end in a file name", path)
	}

	return TransferRecord{
		Path:     path,
		FileName: name,
		Body:     body,
	}, nil
}

// File is one file of the bundle as exposed to callers.
type File struct {
	Name    string
	Content string
}

// Participates reports whether a bundle file with the given name and
// content is part of a pull.
func Participates(name, content string) bool {
	return content != "" && HasExtension(name)
}

// HasExtension reports whether name ends in Extension, ignoring case. Only
// such files are pushed or pulled.
func HasExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}
