package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
)

func TestID_ValidCases(t *testing.T) {
	tests := []string{
		"prof01",
		"a",
		"citrus/yuzu",
		"weird(name)[1].v2",
		strings.Repeat("a", 64),
	}
	v := ID(0)
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			if err := v(id); err != nil {
				t.Errorf("ID()(%q) = %v, want nil", id, err)
			}
		})
	}
}

func TestID_InvalidCases(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"empty", "", gitdocerr.ErrInvalidIDLength},
		{"too long", strings.Repeat("a", 65), gitdocerr.ErrInvalidIDLength},
		{"angle bracket", "<test>", gitdocerr.ErrInvalidIDCharacter},
		{"leading underscore", "_test", gitdocerr.ErrInvalidIDCharacter},
		{"leading dot", ".test", gitdocerr.ErrInvalidIDCharacter},
		{"trailing dot", "test.", gitdocerr.ErrInvalidIDCharacter},
		{"trailing slash", "test/", gitdocerr.ErrInvalidIDCharacter},
		{"space", "a b", gitdocerr.ErrInvalidIDCharacter},
	}

	v := ID(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ID()(%q) = %v, want wrapping %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestWorkingDir(t *testing.T) {
	if err := WorkingDir("/tmp/db", 0); err != nil {
		t.Errorf("WorkingDir() = %v, want nil", err)
	}
	long := "/tmp/" + strings.Repeat("a", 200)
	if err := WorkingDir(long, 0); !errors.Is(err, gitdocerr.ErrInvalidWorkingDirectoryPathLength) {
		t.Errorf("WorkingDir() = %v, want ErrInvalidWorkingDirectoryPathLength", err)
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	calls := 0
	ok := func(string) error { calls++; return nil }
	boom := func(string) error { calls++; return gitdocerr.ErrInvalidIDCharacter }
	never := func(string) error { calls++; return nil }

	err := Chain(ok, boom, never)("x")
	if !errors.Is(err, gitdocerr.ErrInvalidIDCharacter) {
		t.Fatalf("Chain() = %v", err)
	}
	if calls != 2 {
		t.Fatalf("Chain() ran %d validators, want 2 (stop at first error)", calls)
	}
}
