package schema

import (
	"path/filepath"
)

// Source identifies where a schema document originated so loader errors can
// point at the offending file.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile     SourceKind = "file"
	SourceKindFS       SourceKind = "fs"
	SourceKindEmbedded SourceKind = "embedded"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
	kind SourceKind
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return s.kind
}

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name, kind: SourceKindFS}
}

func embeddedSource(name string) Source {
	return fsSource{name: name, kind: SourceKindEmbedded}
}

func describeSource(src Source) string {
	if src == nil {
		return "<inline>"
	}
	return string(src.Kind()) + ":" + src.Location()
}
