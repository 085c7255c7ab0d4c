// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package assets stores uploaded and platform-copied transcript files on disk
// and addresses them by course-asset style locators.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/renameio/v2"
	"golang.org/x/text/unicode/norm"

	xlog "github.com/ManuGH/transcriptd/internal/log"
)

const (
	locatorPrefix = "asset-v1:"
	locatorInfix  = "+type@asset+block@"
)

var (
	// ErrNotFound is returned when no asset exists for a locator.
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidLocator is returned for locators that do not name an asset.
	ErrInvalidLocator = errors.New("invalid asset locator")
	// ErrInvalidName is returned when a filename or item id sanitizes to nothing usable.
	ErrInvalidName = errors.New("invalid asset name")
)

// Asset describes one stored file.
type Asset struct {
	ID       string    `json:"id"`
	ItemID   string    `json:"item_id"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// URL is the stored-resource locator referenced from transcript records.
func (a Asset) URL() string {
	return "/" + a.ID
}

// Locator builds the asset id for a file attached to an item.
func Locator(itemID, filename string) string {
	return locatorPrefix + itemID + locatorInfix + filename
}

// ParseLocator splits a locator (with or without its leading slash) into
// item id and filename.
func ParseLocator(locator string) (itemID, filename string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(locator, "/"), locatorPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	itemID, filename, ok = strings.Cut(rest, locatorInfix)
	if !ok || itemID == "" || filename == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return itemID, filename, nil
}

// FileNameFromLocator returns the part of a locator after its last '@',
// which is the stored filename for well-formed locators.
func FileNameFromLocator(locator string) string {
	if i := strings.LastIndex(locator, "@"); i >= 0 {
		return locator[i+1:]
	}
	return locator
}

// SanitizeName normalizes name to NFC and replaces anything outside letters,
// digits, '.', '-' and '_' with '_'. Names that would escape their directory
// are rejected.
func SanitizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return out, nil
}

// DiskStore keeps assets under root/<item>/<filename>.
type DiskStore struct {
	root string
}

// NewDiskStore creates root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("assets: root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("assets: create root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes content atomically, replacing any asset with the same name.
func (s *DiskStore) Put(ctx context.Context, itemID, filename string, content []byte) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	item, err := SanitizeName(itemID)
	if err != nil {
		return Asset{}, err
	}
	name, err := SanitizeName(filename)
	if err != nil {
		return Asset{}, err
	}
	dir := filepath.Join(s.root, item)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Asset{}, fmt.Errorf("assets: create item dir: %w", err)
	}
	path := filepath.Join(dir, name)

	logger := xlog.FromContext(ctx)
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return Asset{}, fmt.Errorf("assets: create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending asset file")
		}
	}()
	if _, err := pending.Write(content); err != nil {
		return Asset{}, fmt.Errorf("assets: write: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return Asset{}, fmt.Errorf("assets: atomically replace: %w", err)
	}

	logger.Info().
		Str(xlog.FieldEvent, "asset.stored").
		Str(xlog.FieldItemID, item).
		Str(xlog.FieldFilename, name).
		Int("bytes", len(content)).
		Msg("asset stored")

	return Asset{
		ID:       Locator(item, name),
		ItemID:   item,
		Filename: name,
		Size:     int64(len(content)),
		ModTime:  time.Now().UTC(),
	}, nil
}

// Get reads the asset addressed by locator.
func (s *DiskStore) Get(ctx context.Context, locator string) (Asset, []byte, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, nil, err
	}
	path, item, name, err := s.resolve(locator)
	if err != nil {
		return Asset{}, nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Asset{}, nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return Asset{}, nil, fmt.Errorf("assets: stat: %w", err)
	}
	content, err := os.ReadFile(path) // #nosec G304 -- path confined by resolve
	if err != nil {
		return Asset{}, nil, fmt.Errorf("assets: read: %w", err)
	}
	return Asset{
		ID:       Locator(item, name),
		ItemID:   item,
		Filename: name,
		Size:     info.Size(),
		ModTime:  info.ModTime().UTC(),
	}, content, nil
}

// Delete removes the asset. Deleting a missing asset is not an error.
func (s *DiskStore) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, _, _, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("assets: delete: %w", err)
	}
	return nil
}

func (s *DiskStore) resolve(locator string) (path, item, name string, err error) {
	rawItem, rawName, err := ParseLocator(locator)
	if err != nil {
		return "", "", "", err
	}
	item, err = SanitizeName(rawItem)
	if err != nil || item != rawItem {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	name, err = SanitizeName(rawName)
	if err != nil || name != rawName {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	path = filepath.Join(s.root, item, name)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return path, item, name, nil
}
