// Package types holds the data shapes shared across gitdocdb's internal
// packages: documents, operation results, the repository marker, and the
// option structs accepted by the public API.
package types

import "time"

// Document is a JSON object keyed by string property names. The "_id"
// property, when present, carries the document's identifier.
type Document map[string]any

// ID returns the document's identifier, or "" if absent or not a string.
func (d Document) ID() string {
	if d == nil {
		return ""
	}
	v, ok := d["_id"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Marker identifies a repository as created by gitdocdb and records the
// schema version it was created with.
type Marker struct {
	Creator string `json:"creator"`
	Version string `json:"version"`
	DBID    string `json:"db_id"`
}

// OpenInfo classifies a repository as observed by Open.
type OpenInfo struct {
	IsNew               bool
	IsCreatedByGitdocdb bool
	IsValidVersion      bool
}

// Identity is a commit author or committer.
type Identity struct {
	Name  string
	Email string
}

// PutResult is returned by Put, Insert, and Update.
type PutResult struct {
	ID        string
	FileOID   string
	CommitOID string
}

// DeleteResult is returned by Delete. FileOID is the blob OID of the
// document as it existed immediately before deletion.
type DeleteResult struct {
	ID        string
	FileOID   string
	CommitOID string
}

// Row is one entry of an AllDocsResult.
type Row struct {
	ID      string
	FileOID string
	Doc     Document // nil unless IncludeDocs was requested
}

// AllDocsResult is returned by AllDocs.
type AllDocsResult struct {
	TotalRows int
	CommitOID string
	Rows      []Row
}

// PutOptions configures Put, Insert, and Update.
type PutOptions struct {
	CommitMessage string
}

// DeleteOptions configures Delete.
type DeleteOptions struct {
	CommitMessage string
}

// AllDocsOptions configures AllDocs.
type AllDocsOptions struct {
	IncludeDocs  bool
	Descending   bool
	SubDirectory string
	Recursive    bool
}

// CloseOptions configures DB.Close.
type CloseOptions struct {
	Force   bool
	Timeout time.Duration
}

// DefaultCloseTimeout is applied when CloseOptions.Timeout is zero.
const DefaultCloseTimeout = 10 * time.Second

// Options configures Open / the constructor of a DB.
type Options struct {
	// DBName is the repository's directory name. Required.
	DBName string
	// LocalDir is the parent directory under which DBName is created.
	// Defaults to "./git-documentdb/".
	LocalDir string
	// Author defaults to the gitdocdb system identity when zero; Committer
	// defaults to the resolved Author when zero.
	Author    Identity
	Committer Identity
	// MaxIDLength overrides the default identifier length limit (64) when positive.
	MaxIDLength int
}

// DefaultAuthor is the identity used when Options.Author is zero.
var DefaultAuthor = Identity{Name: "GitDocumentDB", Email: "system@gdd.localhost"}

// DefaultMaxIDLength is the default maximum identifier length (spec.md §3).
const DefaultMaxIDLength = 64

// DefaultWorkingDirPathLength is the maximum working directory path length.
const DefaultWorkingDirPathLength = 195

// CurrentVersion is gitdocdb's marker schema version.
const CurrentVersion = "1.0.0"

// Creator is the marker's creator field for repositories made by this system.
const Creator = "gitdocdb"

// MarkerPath is the tracked document path carrying the repository marker.
const MarkerPath = ".gitddb/info.json"
