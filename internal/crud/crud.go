// Package crud implements gitdocdb's put/insert/update/get/delete engine
// (spec.md §4.E) on top of internal/gitrepo, internal/validate, and
// internal/jsoncodec. Every exported method here is meant to run as the
// body of a single internal/taskqueue task (mutations) or directly on the
// calling goroutine (reads) — it does not itself touch the queue.
//
// Directory creation for nested ids is internal/gitrepo's job; the
// empty-parent cleanup on delete follows the walk-up-removing idiom used
// in the teacher's internal/merge/merge.go file-output helpers.
package crud

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/gitrepo"
	"github.com/gitdocdb/gitdocdb/internal/jsoncodec"
	"github.com/gitdocdb/gitdocdb/internal/types"
	"github.com/gitdocdb/gitdocdb/internal/validate"
)

// Mode distinguishes the three put variants of spec.md §4.E.
type Mode int

const (
	ModePut Mode = iota
	ModeInsert
	ModeUpdate
)

// Engine is the CRUD engine bound to one repository handle.
type Engine struct {
	repo              *gitrepo.Handle
	maxIDLength       int
	author, committer types.Identity
}

// New binds a CRUD engine to repo. author/committer are the default Git
// identity used for every commit this engine produces.
func New(repo *gitrepo.Handle, maxIDLength int, author, committer types.Identity) *Engine {
	return &Engine{repo: repo, maxIDLength: maxIDLength, author: author, committer: committer}
}

func (e *Engine) validateID(id string) error {
	return validate.ID(e.maxIDLength)(id)
}

func path(id string) string {
	return id + ".json"
}

func shortOID(oid string) string {
	if len(oid) <= 7 {
		return oid
	}
	return oid[:7]
}

// blobHash computes the Git blob OID of content without staging or
// writing anything, for use in pre-commit message text ("insert:
// x.json(<short_oid>)"). It is the same SHA-1 `git hash-object` would
// compute for a blob of this content.
func blobHash(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

// exists reports whether id currently has a tracked document at HEAD.
func (e *Engine) exists(id string) (bool, error) {
	head, hasHead, err := e.repo.HeadCommit()
	if err != nil {
		return false, err
	}
	if !hasHead {
		return false, nil
	}
	_, _, err = e.repo.ReadBlob(path(id), head)
	if errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put implements put/insert/update (spec.md §4.E). It sets doc's "_id" to
// id before encoding (the caller, gitdocdb's orchestrator, is responsible
// for id resolution from either argument form).
func (e *Engine) Put(id string, doc types.Document, mode Mode, opts types.PutOptions) (types.PutResult, error) {
	if err := e.validateID(id); err != nil {
		return types.PutResult{}, err
	}

	existed, err := e.exists(id)
	if err != nil {
		return types.PutResult{}, err
	}
	switch mode {
	case ModeInsert:
		if existed {
			return types.PutResult{}, fmt.Errorf("%w: %s", gitdocerr.ErrSameIDExists, id)
		}
	case ModeUpdate:
		if !existed {
			return types.PutResult{}, fmt.Errorf("%w: %s", gitdocerr.ErrDocumentNotFound, id)
		}
	}

	doc["_id"] = id
	encoded, err := jsoncodec.Encode(doc)
	if err != nil {
		return types.PutResult{}, err
	}

	message := opts.CommitMessage
	if message == "" {
		verb := "insert"
		if existed {
			verb = "update"
		}
		message = fmt.Sprintf("%s: %s.json(%s)", verb, id, shortOID(blobHash(encoded)))
	}

	fileOID, commitOID, err := e.repo.StageAndCommit(path(id), encoded, message, e.author, e.committer)
	if err != nil {
		return types.PutResult{}, err
	}
	return types.PutResult{ID: id, FileOID: fileOID, CommitOID: commitOID}, nil
}

// Get implements get/back_number (spec.md §4.E). backNumber == 0 reads
// HEAD's current blob directly; backNumber >= 1 walks the first-parent
// chain counting only commits that actually changed the document
// (interpretation (ii) of spec.md §9). A nil, nil return means "absent"
// (not found at HEAD, or the history chain exhausted before reaching
// backNumber) — get never fails with ErrDocumentNotFound, per spec.md §9.
func (e *Engine) Get(id string, backNumber int) (types.Document, error) {
	if err := e.validateID(id); err != nil {
		return nil, err
	}
	if backNumber < 0 {
		return nil, fmt.Errorf("%w: %d", gitdocerr.ErrInvalidBackNumber, backNumber)
	}

	head, hasHead, err := e.repo.HeadCommit()
	if err != nil {
		return nil, err
	}
	if !hasHead {
		return nil, nil
	}

	if backNumber == 0 {
		content, _, err := e.repo.ReadBlob(path(id), head)
		if errors.Is(err, gitdocerr.ErrDocumentNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return jsoncodec.Decode(content, id)
	}

	return e.getBackNumber(id, head, backNumber)
}

// blobOIDAt returns the OID of path at commit, or "" if commit is absent
// (hasCommit == false) or the path does not exist there.
func (e *Engine) blobOIDAt(p string, commit plumbing.Hash, hasCommit bool) (string, error) {
	if !hasCommit {
		return "", nil
	}
	_, oid, err := e.repo.ReadBlob(p, commit)
	if errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return oid, nil
}

// getBackNumber walks the first-parent chain from head, counting only
// commits where the document's blob OID actually differs from its
// parent's. The first such commit found reproduces HEAD's own current
// value (backNumber 0, handled by the caller before this is reached); the
// n-th one found after that is backNumber n.
func (e *Engine) getBackNumber(id string, head plumbing.Hash, n int) (types.Document, error) {
	p := path(id)
	target := n + 1
	count := 0

	current := head
	hasCurrent := true
	for {
		curOID, err := e.blobOIDAt(p, current, hasCurrent)
		if err != nil {
			return nil, err
		}
		parent, hasParent, err := e.repo.CommitParent(current)
		if err != nil {
			return nil, err
		}
		parentOID, err := e.blobOIDAt(p, parent, hasParent)
		if err != nil {
			return nil, err
		}

		if curOID != parentOID {
			count++
			if count == target {
				if curOID == "" {
					return nil, nil
				}
				content, _, err := e.repo.ReadBlob(p, current)
				if err != nil {
					return nil, err
				}
				return jsoncodec.Decode(content, id)
			}
		}
		if !hasParent {
			return nil, nil
		}
		current = parent
	}
}

// Delete implements delete (spec.md §4.E): fails ErrDocumentNotFound if
// the id is absent at HEAD, otherwise commits the removal and best-effort
// prunes now-empty parent directories.
func (e *Engine) Delete(id string, opts types.DeleteOptions) (types.DeleteResult, error) {
	if err := e.validateID(id); err != nil {
		return types.DeleteResult{}, err
	}

	head, hasHead, err := e.repo.HeadCommit()
	if err != nil {
		return types.DeleteResult{}, err
	}
	if !hasHead {
		return types.DeleteResult{}, fmt.Errorf("%w: %s", gitdocerr.ErrDocumentNotFound, id)
	}
	_, oid, err := e.repo.ReadBlob(path(id), head)
	if err != nil {
		return types.DeleteResult{}, err
	}

	message := opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("delete: %s.json(%s)", id, shortOID(oid))
	}

	fileOID, commitOID, err := e.repo.StageRemovalAndCommit(path(id), message, e.author, e.committer)
	if err != nil {
		return types.DeleteResult{}, err
	}
	_ = e.repo.PruneEmptyDirs(path(id))

	return types.DeleteResult{ID: id, FileOID: fileOID, CommitOID: commitOID}, nil
}
