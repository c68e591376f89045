// Package storage is the file sink exported notes are written to.
package storage

import "time"

// File describes one stored document.
type File struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sink stores exported documents. Names are slash-separated paths relative to
// the sink root.
type Sink interface {
	// List returns every stored file under dir, sorted by name.
	List(dir string) ([]File, error)
	// Read returns the raw bytes of a file.
	Read(name string) ([]byte, error)
	// Write atomically replaces a file's content.
	Write(name string, content []byte) error
	// Delete removes a file.
	Delete(name string) error
}
