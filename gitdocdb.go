// Package gitdocdb is an embedded, Git-backed JSON document store: every
// document is a file under a Git working tree, and every mutation is a
// commit (spec.md §1). This file is the orchestrator of spec.md §4.G: it
// binds internal/gitrepo (repository lifecycle), internal/taskqueue
// (serialized single-writer mutations), and internal/crud / internal/walker
// (the operations themselves) behind one public DB type.
//
// The shape — atomic lifecycle flags guarding every public method, checked
// before any work is dispatched — follows the teacher's own facade
// (beads.go) over its storage layer, generalized from a thin type-alias
// wrapper to an orchestrator that actually owns its subsystems, since
// gitdocdb's root package is where spec.md §4.G says the hard part lives.
package gitdocdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gitdocdb/gitdocdb/internal/crud"
	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/gitlog"
	"github.com/gitdocdb/gitdocdb/internal/gitrepo"
	"github.com/gitdocdb/gitdocdb/internal/taskqueue"
	"github.com/gitdocdb/gitdocdb/internal/types"
	"github.com/gitdocdb/gitdocdb/internal/validate"
	"github.com/gitdocdb/gitdocdb/internal/walker"
)

// Re-exported types and sentinel errors, so callers need only import this
// one package (spec.md §4.G).
type (
	Document       = types.Document
	Identity       = types.Identity
	Marker         = types.Marker
	OpenInfo       = types.OpenInfo
	PutResult      = types.PutResult
	DeleteResult   = types.DeleteResult
	Row            = types.Row
	AllDocsResult  = types.AllDocsResult
	Options        = types.Options
	PutOptions     = types.PutOptions
	DeleteOptions  = types.DeleteOptions
	AllDocsOptions = types.AllDocsOptions
	CloseOptions   = types.CloseOptions
)

var (
	ErrUndefinedDatabaseName = gitdocerr.ErrUndefinedDatabaseName
	ErrUndefinedDocumentID   = gitdocerr.ErrUndefinedDocumentID
	ErrRepositoryNotOpen     = gitdocerr.ErrRepositoryNotOpen
	ErrDatabaseClosing       = gitdocerr.ErrDatabaseClosing
	ErrDatabaseCloseTimeout  = gitdocerr.ErrDatabaseCloseTimeout
	ErrDocumentNotFound      = gitdocerr.ErrDocumentNotFound
	ErrSameIDExists          = gitdocerr.ErrSameIDExists
	ErrInvalidBackNumber     = gitdocerr.ErrInvalidBackNumber
)

const defaultLocalDir = "./git-documentdb/"

// DB is a single gitdocdb database: one Git repository, one serialized
// mutation queue, and the CRUD/walker engines bound to it.
type DB struct {
	repo   *gitrepo.Handle
	queue  *taskqueue.Queue
	engine *crud.Engine

	isOpened  atomic.Bool
	isClosing atomic.Bool
}

// Open opens (creating if necessary) the repository named by opts.DBName
// under opts.LocalDir, per spec.md §4.A/§4.C. The returned OpenInfo
// classifies what was found: whether the working directory was freshly
// created, and whether its marker identifies it as a gitdocdb repository of
// a compatible version.
func Open(ctx context.Context, opts types.Options) (*DB, types.OpenInfo, error) {
	if opts.DBName == "" {
		return nil, types.OpenInfo{}, ErrUndefinedDatabaseName
	}
	localDir := opts.LocalDir
	if localDir == "" {
		localDir = defaultLocalDir
	}
	workingDir := filepath.Join(localDir, opts.DBName)
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, types.OpenInfo{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotOpenRepository, err)
	}
	if err := validate.WorkingDir(abs, 0); err != nil {
		return nil, types.OpenInfo{}, err
	}

	repo, openInfo, err := gitrepo.Open(ctx, workingDir)
	if err != nil {
		return nil, types.OpenInfo{}, err
	}

	marker, found, err := repo.ReadMarker()
	if err != nil {
		return nil, types.OpenInfo{}, err
	}
	classified := gitrepo.Classify(marker, found)
	openInfo.IsCreatedByGitdocdb = classified.IsCreatedByGitdocdb
	openInfo.IsValidVersion = classified.IsValidVersion

	author := opts.Author
	if author == (types.Identity{}) {
		author = types.DefaultAuthor
	}
	committer := opts.Committer
	if committer == (types.Identity{}) {
		committer = author
	}

	if !found {
		m := types.Marker{Creator: types.Creator, Version: types.CurrentVersion, DBID: uuid.NewString()}
		if _, err := repo.WriteMarker(m, author, committer); err != nil {
			return nil, types.OpenInfo{}, err
		}
		openInfo.IsCreatedByGitdocdb = true
		openInfo.IsValidVersion = true
	}

	maxIDLength := opts.MaxIDLength
	if maxIDLength <= 0 {
		maxIDLength = types.DefaultMaxIDLength
	}

	db := &DB{
		repo:   repo,
		queue:  taskqueue.New(),
		engine: crud.New(repo, maxIDLength, author, committer),
	}
	db.isOpened.Store(true)
	return db, openInfo, nil
}

func (db *DB) checkLive() error {
	if db.isClosing.Load() {
		return ErrDatabaseClosing
	}
	if !db.isOpened.Load() {
		return ErrRepositoryNotOpen
	}
	return nil
}

// resolveID implements spec.md §4.E's id-resolution rule: an explicit id
// argument wins; otherwise it is read from the document's own "_id".
// Missing either way is ErrUndefinedDocumentID.
func resolveID(id string, doc types.Document) (string, error) {
	if id != "" {
		return id, nil
	}
	if docID := doc.ID(); docID != "" {
		return docID, nil
	}
	return "", ErrUndefinedDocumentID
}

func (db *DB) submitPut(ctx context.Context, id string, doc types.Document, mode crud.Mode, opts types.PutOptions) (types.PutResult, error) {
	if err := db.checkLive(); err != nil {
		return types.PutResult{}, err
	}
	resolvedID, err := resolveID(id, doc)
	if err != nil {
		return types.PutResult{}, err
	}

	outcome := <-db.queue.Submit(ctx, func(ctx context.Context) (any, error) {
		return db.engine.Put(resolvedID, doc, mode, opts)
	})
	if outcome.Err != nil {
		return types.PutResult{}, outcome.Err
	}
	return outcome.Value.(types.PutResult), nil
}

// Put writes doc under id (create-or-replace). If id is empty it is taken
// from doc's "_id" field.
func (db *DB) Put(ctx context.Context, id string, doc types.Document, opts types.PutOptions) (types.PutResult, error) {
	return db.submitPut(ctx, id, doc, crud.ModePut, opts)
}

// Insert writes doc under id, failing with ErrSameIDExists if a document
// with that id already exists.
func (db *DB) Insert(ctx context.Context, id string, doc types.Document, opts types.PutOptions) (types.PutResult, error) {
	return db.submitPut(ctx, id, doc, crud.ModeInsert, opts)
}

// Update replaces the document at id, failing with ErrDocumentNotFound if
// it does not already exist.
func (db *DB) Update(ctx context.Context, id string, doc types.Document, opts types.PutOptions) (types.PutResult, error) {
	return db.submitPut(ctx, id, doc, crud.ModeUpdate, opts)
}

// Get reads the document at id. backNumber 0 reads the current value;
// backNumber n >= 1 reads the document as it stood n changes ago (spec.md
// §4.E, §9). A nil Document with a nil error means the document does not
// exist at that revision.
func (db *DB) Get(ctx context.Context, id string, backNumber int) (types.Document, error) {
	if err := db.checkLive(); err != nil {
		return nil, err
	}
	return db.engine.Get(id, backNumber)
}

// Delete removes the document at id, failing with ErrDocumentNotFound if
// it is not currently tracked.
func (db *DB) Delete(ctx context.Context, id string, opts types.DeleteOptions) (types.DeleteResult, error) {
	if err := db.checkLive(); err != nil {
		return types.DeleteResult{}, err
	}
	outcome := <-db.queue.Submit(ctx, func(ctx context.Context) (any, error) {
		return db.engine.Delete(id, opts)
	})
	if outcome.Err != nil {
		return types.DeleteResult{}, outcome.Err
	}
	return outcome.Value.(types.DeleteResult), nil
}

// AllDocs lists documents under the repository's tree (spec.md §4.F). It
// runs directly against the repository rather than through the mutation
// queue, since it is read-only and may run concurrently with the single
// in-flight writer.
func (db *DB) AllDocs(ctx context.Context, opts types.AllDocsOptions) (types.AllDocsResult, error) {
	if err := db.checkLive(); err != nil {
		return types.AllDocsResult{}, err
	}
	return walker.AllDocs(db.repo, opts)
}

// Close stops accepting new mutations and shuts the task queue down.
// Graceful close (the default) waits for already-queued tasks to finish,
// up to opts.Timeout (types.DefaultCloseTimeout if zero); Force discards
// every not-yet-started task immediately instead.
func (db *DB) Close(opts types.CloseOptions) error {
	if !db.isOpened.CompareAndSwap(true, false) {
		return ErrRepositoryNotOpen
	}
	db.isClosing.Store(true)
	defer db.isClosing.Store(false)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = types.DefaultCloseTimeout
	}
	return db.queue.Close(opts.Force, timeout)
}

// Destroy closes the database and removes its working directory entirely.
// Directory removal is best-effort: a failure there is logged, not
// returned, so the caller is only ever notified of a close failure.
func (db *DB) Destroy(ctx context.Context) error {
	dir := db.repo.Dir()
	closeErr := db.Close(types.CloseOptions{})
	if rmErr := os.RemoveAll(dir); rmErr != nil {
		gitlog.Default.Warn("destroy: removing %s: %v", dir, rmErr)
	}
	return closeErr
}
