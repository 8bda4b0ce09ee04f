package gitrepo

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

// ReadMarker reads the repository marker (spec.md §3, §9: a tracked
// document at .gitddb/info.json). ok is false when there is no HEAD commit
// yet or the marker path does not exist — both mean "not created by
// gitdocdb, or not yet written".
func (h *Handle) ReadMarker() (marker *types.Marker, ok bool, err error) {
	head, hasHead, err := h.HeadCommit()
	if err != nil {
		return nil, false, err
	}
	if !hasHead {
		return nil, false, nil
	}
	data, _, err := h.ReadBlob(types.MarkerPath, head)
	if errors.Is(err, gitdocerr.ErrDocumentNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m types.Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("%w: marker is not valid json: %v", gitdocerr.ErrCorruptedRepository, err)
	}
	return &m, true, nil
}

// WriteMarker commits the repository marker at .gitddb/info.json.
func (h *Handle) WriteMarker(marker types.Marker, author, committer types.Identity) (commitOID string, err error) {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", gitdocerr.ErrInvalidJSONObject, err)
	}
	_, commitOID, err = h.StageAndCommit(types.MarkerPath, data, "gitdocdb: init", author, committer)
	return commitOID, err
}

// Classify inspects the repository's marker and returns the OpenInfo flags
// described in spec.md §3: is_created_by_gitdocdb, is_valid_version.
//
// Version comparison goes through golang.org/x/mod/semver rather than a
// plain string equality check: the marker's version is valid only when it
// is semver-equal to types.CurrentVersion (build metadata is ignored), so
// a marker from any other release, including a different patch release,
// is classified as not valid.
func Classify(marker *types.Marker, found bool) types.OpenInfo {
	if !found {
		return types.OpenInfo{}
	}
	return types.OpenInfo{
		IsCreatedByGitdocdb: marker.Creator == types.Creator,
		IsValidVersion:      semver.Compare("v"+marker.Version, "v"+types.CurrentVersion) == 0,
	}
}
