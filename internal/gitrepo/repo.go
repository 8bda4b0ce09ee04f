// Package gitrepo implements gitdocdb's repository lifecycle and identity
// layer (spec.md §4.C): opening, creating, and validating the on-disk Git
// repository that backs a database, and the low-level stage/commit/read
// primitives the CRUD engine and tree walker build on.
//
// The teacher automates git by shelling out to the git binary (see the
// worktree-management idiom this package replaces); gitdocdb needs
// blob/tree/commit OIDs back from every mutation, which is a plumbing-level
// concern, so this package is built directly on github.com/go-git/go-git/v5
// the way other_examples/gittuf, other_examples/scribble, and
// other_examples/config-history-operator all do: PlainOpen/PlainInit,
// Worktree.Add, Worktree.Commit with an explicit object.Signature.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/gofrs/flock"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/gitlog"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

// Handle owns a single non-bare Git repository and the worktree checked out
// on its current branch. It is not internally synchronized: spec.md §4.C
// relies on internal/taskqueue to serialize every mutating call against a
// Handle. Reads (ReadBlob, HeadCommit) may run concurrently with the single
// active writer.
type Handle struct {
	dir  string
	repo *git.Repository
}

// Dir returns the repository's working directory.
func (h *Handle) Dir() string { return h.dir }

// Raw exposes the underlying go-git repository for components (the tree
// walker) that need plumbing access beyond this package's narrow surface.
func (h *Handle) Raw() *git.Repository { return h.repo }

// lockPath is the advisory cross-process lock guarding concurrent creation
// of the same working directory. It sits beside, not inside, the working
// directory so it survives even when Open fails before .git exists.
func lockPath(workingDir string) string {
	return filepath.Clean(workingDir) + ".gitdocdb.lock"
}

// Open opens the repository at workingDir, creating both the directory and
// a fresh repository (initial branch "main") if neither exists yet.
//
// A file lock on a sibling path guards the create-if-missing path: this is
// the one place gitdocdb goes stricter than spec.md §4.C's "not internally
// synchronized" baseline, because two processes racing to initialize the
// same working directory would otherwise corrupt .git, a failure mode the
// single-process task queue cannot prevent.
func Open(ctx context.Context, workingDir string) (*Handle, types.OpenInfo, error) {
	fl := flock.New(lockPath(workingDir))
	if err := fl.Lock(); err != nil {
		return nil, types.OpenInfo{}, fmt.Errorf("%w: acquiring init lock: %v", gitdocerr.ErrCannotOpenRepository, err)
	}
	defer func() { _ = fl.Unlock() }()

	if err := os.MkdirAll(workingDir, 0o755); err != nil {
		return nil, types.OpenInfo{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotCreateDirectory, err)
	}

	repo, err := git.PlainOpen(workingDir)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		repo, err = git.PlainInitWithOptions(workingDir, &git.PlainInitOptions{
			InitOptions: git.InitOptions{
				DefaultBranch: plumbing.NewBranchReferenceName("main"),
			},
		})
		if err != nil {
			return nil, types.OpenInfo{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotOpenRepository, err)
		}
		return &Handle{dir: workingDir, repo: repo}, types.OpenInfo{IsNew: true}, nil
	case err != nil:
		return nil, types.OpenInfo{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotOpenRepository, err)
	}

	return &Handle{dir: workingDir, repo: repo}, types.OpenInfo{}, nil
}

// HeadCommit returns HEAD's commit hash. ok is false when the repository
// has no commits yet (spec.md §4.C: "the absence of HEAD means no commits
// yet").
func (h *Handle) HeadCommit() (hash plumbing.Hash, ok bool, err error) {
	ref, err := h.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	return ref.Hash(), true, nil
}

// ReadBlob returns the contents and blob OID of path as it exists in the
// tree of commit at. It fails with ErrDocumentNotFound if path is absent.
func (h *Handle) ReadBlob(path string, at plumbing.Hash) (content []byte, oid string, err error) {
	commit, err := h.repo.CommitObject(at)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	f, err := commit.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, "", fmt.Errorf("%w: %s", gitdocerr.ErrDocumentNotFound, path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	rc, err := f.Reader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	defer rc.Close()

	buf := make([]byte, 0, f.Size)
	tmp := make([]byte, 32*1024)
	for {
		n, rerr := rc.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if rerr != nil {
			break
		}
	}
	return buf, f.Blob.Hash.String(), nil
}

// sig builds a go-git signature from a gitdocdb identity, timestamped now.
func sig(id types.Identity) *object.Signature {
	return &object.Signature{Name: id.Name, Email: id.Email, When: time.Now()}
}

// StageAndCommit writes content to path under the working directory, stages
// it, and commits on the current branch with HEAD as parent (or none, on
// the first commit). It returns the staged blob's OID and the new commit's
// OID (spec.md §4.C write_and_commit).
func (h *Handle) StageAndCommit(path string, content []byte, message string, author, committer types.Identity) (fileOID, commitOID string, err error) {
	full := filepath.Join(h.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotCreateDirectory, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotWriteData, err)
	}

	wt, err := h.repo.Worktree()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotWriteData, err)
	}
	blobHash, err := wt.Add(filepath.ToSlash(path))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotWriteData, err)
	}
	commitHash, err := wt.Commit(message, &git.CommitOptions{
		Author:    sig(author),
		Committer: sig(committer),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotWriteData, err)
	}
	return blobHash.String(), commitHash.String(), nil
}

// StageRemovalAndCommit removes path from the index and working tree and
// commits the removal. fileOID is the blob OID the document had
// immediately before deletion (spec.md §3 DeleteResult).
func (h *Handle) StageRemovalAndCommit(path, message string, author, committer types.Identity) (fileOID, commitOID string, err error) {
	head, ok, err := h.HeadCommit()
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("%w: %s", gitdocerr.ErrDocumentNotFound, path)
	}
	_, oid, err := h.ReadBlob(path, head)
	if err != nil {
		return "", "", err
	}

	wt, err := h.repo.Worktree()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotDeleteData, err)
	}
	if _, err := wt.Remove(filepath.ToSlash(path)); err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotDeleteData, err)
	}
	commitHash, err := wt.Commit(message, &git.CommitOptions{
		Author:    sig(author),
		Committer: sig(committer),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", gitdocerr.ErrCannotDeleteData, err)
	}
	return oid, commitHash.String(), nil
}

// PruneEmptyDirs removes now-empty parent directories of path, walking up
// from path's directory but stopping at (and never removing) the working
// directory root (spec.md §4.E, §9).
func (h *Handle) PruneEmptyDirs(path string) error {
	dir := filepath.Dir(filepath.Join(h.dir, filepath.FromSlash(path)))
	root := filepath.Clean(h.dir)
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			gitlog.Default.Debug("prune: reading %s: %v", dir, err)
			return nil
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			gitlog.Default.Debug("prune: removing %s: %v", dir, err)
			return nil
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// CommitParent returns the first parent of commit, and false if commit is
// a root commit.
func (h *Handle) CommitParent(hash plumbing.Hash) (plumbing.Hash, bool, error) {
	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	if len(commit.ParentHashes) == 0 {
		return plumbing.ZeroHash, false, nil
	}
	return commit.ParentHashes[0], true, nil
}
