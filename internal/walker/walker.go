// Package walker implements gitdocdb's breadth-first tree walk, the
// allDocs operation of spec.md §4.F: a scan over a commit's root tree
// (optionally rooted at a sub-directory) yielding per-document metadata
// and, on request, parsed contents, in a specified ordering.
//
// go-git's own Tree.Files() walks depth-first; §4.F requires breadth-first
// with a directory's entries fully emitted before any of its subtrees are
// descended into, so this package drives plumbing/object.Tree manually with
// an explicit FIFO work-list, the same queue-based BFS shape the teacher
// uses for its own dependency-tree traversal (GetDependencyTree), adapted
// from SQL recursion to Git tree recursion.
package walker

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/gitrepo"
	"github.com/gitdocdb/gitdocdb/internal/jsoncodec"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

const jsonExt = ".json"

// workItem is one directory queued for breadth-first visitation, carrying
// the id-path prefix accumulated on the way down (e.g. "citrus" before
// descending into citrus/amanatsu.json).
type workItem struct {
	tree   *object.Tree
	prefix string
	atRoot bool
}

// markerDir is the top-level directory holding the repository marker
// (types.MarkerPath), hidden from allDocs the way a document store hides
// its own metadata from a document listing.
var markerDir = path.Dir(types.MarkerPath)

// AllDocs implements spec.md §4.F. repo must have been opened already;
// opts mirrors the public AllDocsOptions.
func AllDocs(repo *gitrepo.Handle, opts types.AllDocsOptions) (types.AllDocsResult, error) {
	head, hasHead, err := repo.HeadCommit()
	if err != nil {
		return types.AllDocsResult{}, err
	}
	if !hasHead {
		return types.AllDocsResult{TotalRows: 0}, nil
	}

	commit, err := repo.Raw().CommitObject(head)
	if err != nil {
		return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}
	rootTree, err := commit.Tree()
	if err != nil {
		return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
	}

	startTree := rootTree
	prefix := ""
	if opts.SubDirectory != "" {
		sub, err := rootTree.Tree(path.Clean(opts.SubDirectory))
		if err != nil {
			// spec.md §9's resolved open question: a missing sub_directory
			// yields {total_rows: 0}, not DocumentNotFound.
			return types.AllDocsResult{TotalRows: 0}, nil
		}
		startTree = sub
		prefix = strings.TrimSuffix(opts.SubDirectory, "/")
	}

	var rows []types.Row
	queue := []workItem{{tree: startTree, prefix: prefix, atRoot: opts.SubDirectory == ""}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries := make([]object.TreeEntry, len(item.tree.Entries))
		copy(entries, item.tree.Entries)
		sort.Slice(entries, func(i, j int) bool {
			if opts.Descending {
				return entries[i].Name > entries[j].Name
			}
			return entries[i].Name < entries[j].Name
		})

		for _, entry := range entries {
			if item.atRoot && entry.Name == markerDir {
				continue
			}

			id := entry.Name
			if item.prefix != "" {
				id = item.prefix + "/" + entry.Name
			}

			switch {
			case entry.Mode.IsFile() && strings.HasSuffix(entry.Name, jsonExt):
				row := types.Row{
					ID:      strings.TrimSuffix(id, jsonExt),
					FileOID: entry.Hash.String(),
				}
				if opts.IncludeDocs {
					blob, err := item.tree.TreeEntryFile(&entry)
					if err != nil {
						return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
					}
					reader, err := blob.Reader()
					if err != nil {
						return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
					}
					content, err := readAll(reader)
					reader.Close()
					if err != nil {
						return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
					}
					doc, err := jsoncodec.Decode(content, row.ID)
					if err != nil {
						return types.AllDocsResult{}, err
					}
					row.Doc = doc
				}
				rows = append(rows, row)

			case entry.Mode.IsFile():
				// Non-.json blob: not a document, skipped per spec.md §4.F.

			case opts.Recursive:
				subTree, err := item.tree.Tree(entry.Name)
				if err != nil {
					return types.AllDocsResult{}, fmt.Errorf("%w: %v", gitdocerr.ErrCannotGetEntry, err)
				}
				queue = append(queue, workItem{tree: subTree, prefix: id})
			}
		}
	}

	return types.AllDocsResult{
		TotalRows: len(rows),
		CommitOID: head.String(),
		Rows:      rows,
	}, nil
}

func readAll(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 32*1024)
	for {
		n, err := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}
