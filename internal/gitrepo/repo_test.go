package gitrepo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

var testIdentity = types.Identity{Name: "tester", Email: "tester@example.com"}

func TestOpen_InitializesNewRepository(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, info, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !info.IsNew {
		t.Fatal("Open() on missing dir should report IsNew")
	}
	if _, ok, err := h.HeadCommit(); err != nil || ok {
		t.Fatalf("fresh repository should have no HEAD commit: ok=%v err=%v", ok, err)
	}
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h1, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h1.StageAndCommit("a.json", []byte(`{}`), "insert: a.json", testIdentity, testIdentity); err != nil {
		t.Fatal(err)
	}

	h2, info, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if info.IsNew {
		t.Fatal("reopening an existing repository must not report IsNew")
	}
	if _, ok, err := h2.HeadCommit(); err != nil || !ok {
		t.Fatalf("reopened repository should see the prior commit: ok=%v err=%v", ok, err)
	}
}

func TestStageAndCommit_ThenReadBlob(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	content := []byte(`{
  "_id": "prof01",
  "name": "shirase"
}`)
	fileOID, commitOID, err := h.StageAndCommit("prof01.json", content, "insert: prof01.json", testIdentity, testIdentity)
	if err != nil {
		t.Fatalf("StageAndCommit() error = %v", err)
	}
	if len(fileOID) != 40 || len(commitOID) != 40 {
		t.Fatalf("expected 40-hex oids, got fileOID=%q commitOID=%q", fileOID, commitOID)
	}

	head, ok, err := h.HeadCommit()
	if err != nil || !ok {
		t.Fatalf("HeadCommit() ok=%v err=%v", ok, err)
	}
	got, oid, err := h.ReadBlob("prof01.json", head)
	if err != nil {
		t.Fatalf("ReadBlob() error = %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("ReadBlob() content = %q, want %q", got, content)
	}
	if oid != fileOID {
		t.Fatalf("ReadBlob() oid = %q, want %q", oid, fileOID)
	}
}

func TestReadBlob_MissingPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.StageAndCommit("a.json", []byte(`{}`), "insert: a.json", testIdentity, testIdentity); err != nil {
		t.Fatal(err)
	}
	head, _, _ := h.HeadCommit()
	if _, _, err := h.ReadBlob("missing.json", head); !errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		t.Fatalf("ReadBlob() = %v, want ErrDocumentNotFound", err)
	}
}

func TestStageRemovalAndCommit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	content := []byte(`{"_id":"a"}`)
	fileOID, _, err := h.StageAndCommit("a.json", content, "insert: a.json", testIdentity, testIdentity)
	if err != nil {
		t.Fatal(err)
	}

	delOID, commitOID, err := h.StageRemovalAndCommit("a.json", "delete: a.json", testIdentity, testIdentity)
	if err != nil {
		t.Fatalf("StageRemovalAndCommit() error = %v", err)
	}
	if delOID != fileOID {
		t.Fatalf("StageRemovalAndCommit() fileOID = %q, want %q (pre-deletion blob)", delOID, fileOID)
	}

	head, _, _ := h.HeadCommit()
	if head.String() != commitOID {
		t.Fatalf("HEAD = %q, want %q", head.String(), commitOID)
	}
	if _, _, err := h.ReadBlob("a.json", head); !errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		t.Fatalf("ReadBlob() after delete = %v, want ErrDocumentNotFound", err)
	}
}

func TestStageRemovalAndCommit_MissingDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.StageAndCommit("a.json", []byte(`{}`), "insert: a.json", testIdentity, testIdentity); err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.StageRemovalAndCommit("missing.json", "delete: missing.json", testIdentity, testIdentity); !errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		t.Fatalf("StageRemovalAndCommit() = %v, want ErrDocumentNotFound", err)
	}
}

func TestMarker_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := h.ReadMarker(); err != nil || ok {
		t.Fatalf("fresh repository should have no marker: ok=%v err=%v", ok, err)
	}

	want := types.Marker{Creator: types.Creator, Version: types.CurrentVersion, DBID: "abc123"}
	if _, err := h.WriteMarker(want, testIdentity, testIdentity); err != nil {
		t.Fatalf("WriteMarker() error = %v", err)
	}

	got, ok, err := h.ReadMarker()
	if err != nil || !ok {
		t.Fatalf("ReadMarker() ok=%v err=%v", ok, err)
	}
	if *got != want {
		t.Fatalf("ReadMarker() = %+v, want %+v", got, want)
	}

	info := Classify(got, ok)
	if !info.IsCreatedByGitdocdb || !info.IsValidVersion {
		t.Fatalf("Classify() = %+v, want both true", info)
	}
}

func TestPruneEmptyDirs_StopsAtRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	h, _, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.StageAndCommit("a/b/c.json", []byte(`{}`), "insert: a/b/c.json", testIdentity, testIdentity); err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.StageRemovalAndCommit("a/b/c.json", "delete: a/b/c.json", testIdentity, testIdentity); err != nil {
		t.Fatal(err)
	}
	if err := h.PruneEmptyDirs("a/b/c.json"); err != nil {
		t.Fatalf("PruneEmptyDirs() error = %v", err)
	}
	// The working directory itself must still exist.
	if _, _, err := Open(context.Background(), dir); err != nil {
		t.Fatalf("working directory root must survive prune: %v", err)
	}
}
