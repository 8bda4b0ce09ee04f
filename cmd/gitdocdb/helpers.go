package main

import (
	"context"

	"github.com/gitdocdb/gitdocdb"
	"github.com/gitdocdb/gitdocdb/internal/config"
)

// openDB loads configuration (flags > env > config files, see
// internal/config) and opens the resolved database.
func openDB(ctx context.Context) (*gitdocdb.DB, gitdocdb.OpenInfo, error) {
	opts, err := config.Load(dbNameFlag)
	if err != nil {
		return nil, gitdocdb.OpenInfo{}, err
	}
	return gitdocdb.Open(ctx, opts)
}
