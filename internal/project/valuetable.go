package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/piwi3910/CrateStack/internal/rl"
)

// SaveValueTable writes the flattened table as JSON, zstd-compressed when the
// path ends in .zst.
func SaveValueTable(path string, t *rl.ValueTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create policy directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create policy file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if isCompressed(path) {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to start compression: %w", err)
		}
		w = enc
	}
	if err := json.NewEncoder(w).Encode(t.Document()); err != nil {
		return fmt.Errorf("failed to write policy: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finish compression: %w", err)
		}
	}
	return f.Close()
}

// LoadValueTable reads a table written by SaveValueTable. A missing file yields
// an empty table.
func LoadValueTable(path string) (*rl.ValueTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rl.NewValueTable(), nil
		}
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to start decompression: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	var doc map[string]float64
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	return rl.FromDocument(doc)
}

func isCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

// IsDatabase reports whether path names a SQLite policy store.
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// LoadPolicy loads a value table from a JSON, .json.zst or SQLite file.
func LoadPolicy(ctx context.Context, path string) (*rl.ValueTable, error) {
	if !IsDatabase(path) {
		return LoadValueTable(path)
	}
	store, err := OpenPolicyStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadTable(ctx)
}

// SavePolicy is the counterpart of LoadPolicy.
func SavePolicy(ctx context.Context, path string, t *rl.ValueTable) error {
	if !IsDatabase(path) {
		return SaveValueTable(path, t)
	}
	store, err := OpenPolicyStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveTable(ctx, t)
}
