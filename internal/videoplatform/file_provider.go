// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package videoplatform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
)

const providerFile = "file"

// reloadDebounce collapses bursts of write events from editors.
const reloadDebounce = 250 * time.Millisecond

// catalogFile is the YAML layout of a file-backed platform:
//
//	videos:
//	  intro-101:
//	    - lang: en
//	      label: English
//	      url: captions/intro-101.en.srt
type catalogFile struct {
	Videos map[string][]catalogEntry `yaml:"videos"`
}

// FileProvider serves transcript indexes from a YAML catalog on disk.
// Transcript urls are paths relative to the catalog directory.
type FileProvider struct {
	path   string
	root   string
	logger zerolog.Logger

	mu     sync.RWMutex
	videos map[string]model.PlatformIndex

	// onReload is called after every reload attempt; tests hook it.
	onReload func(error)
}

// NewFileProvider loads the catalog at path.
func NewFileProvider(path string) (*FileProvider, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{
		path:   abs,
		root:   filepath.Dir(abs),
		logger: xlog.WithComponent("videoplatform").With().Str(xlog.FieldProvider, providerFile).Logger(),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements Provider.
func (p *FileProvider) Name() string { return providerFile }

// Reload re-reads the catalog. On error the previous catalog stays active.
func (p *FileProvider) Reload() error {
	videos, err := readCatalog(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.videos = videos
	p.mu.Unlock()
	p.logger.Info().
		Str(xlog.FieldEvent, "platform.catalog_loaded").
		Str(xlog.FieldPath, p.path).
		Int("videos", len(videos)).
		Msg("transcript catalog loaded")
	return nil
}

func readCatalog(path string) (map[string]model.PlatformIndex, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]model.PlatformIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cf catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	videos := make(map[string]model.PlatformIndex, len(cf.Videos))
	for id, entries := range cf.Videos {
		videos[id] = indexFromEntries(entries)
	}
	return videos, nil
}

// ListTranscripts implements Provider.
func (p *FileProvider) ListTranscripts(ctx context.Context, videoID string) (model.PlatformIndex, error) {
	start := time.Now()
	idx, err := p.lookup(ctx, videoID)
	metrics.ObservePlatformFetch(providerFile, "list", err, time.Since(start))
	return idx, err
}

func (p *FileProvider) lookup(ctx context.Context, videoID string) (model.PlatformIndex, error) {
	if err := ctx.Err(); err != nil {
		return model.PlatformIndex{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx, ok := p.videos[videoID]
	if !ok {
		return model.PlatformIndex{}, ErrVideoNotFound
	}
	return idx, nil
}

// DownloadTranscript implements Provider.
func (p *FileProvider) DownloadTranscript(ctx context.Context, url, lang string) ([]byte, error) {
	start := time.Now()
	out, err := p.read(ctx, url)
	metrics.ObservePlatformFetch(providerFile, "download", err, time.Since(start))
	if err != nil {
		p.logger.Warn().Err(err).
			Str(xlog.FieldEvent, "platform.download_failed").
			Str(xlog.FieldLang, lang).
			Msg("transcript download failed")
	}
	return out, err
}

func (p *FileProvider) read(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(url, "file://")
	if rel == "" || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("%w: %q", ErrTranscriptNotFound, url)
	}
	full := filepath.Join(p.root, filepath.FromSlash(rel))
	if r, err := filepath.Rel(p.root, full); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %q escapes catalog directory", ErrTranscriptNotFound, url)
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrTranscriptNotFound, url)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, maxTranscriptBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxTranscriptBytes {
		return nil, fmt.Errorf("transcript %q exceeds %d bytes", url, maxTranscriptBytes)
	}
	return raw, nil
}

// Watch reloads the catalog whenever it changes and blocks until ctx is
// done. The directory is watched so atomic renames are seen too.
func (p *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(p.root); err != nil {
		return fmt.Errorf("watch catalog directory: %w", err)
	}
	p.logger.Info().
		Str(xlog.FieldEvent, "platform.watcher_started").
		Str(xlog.FieldPath, p.path).
		Msg("watching transcript catalog")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Str(xlog.FieldEvent, "platform.watcher_stopped").Msg("catalog watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(reloadDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			err := p.Reload()
			if err != nil {
				p.logger.Error().Err(err).
					Str(xlog.FieldEvent, "platform.catalog_reload_failed").
					Msg("catalog reload failed, keeping previous catalog")
			}
			if p.onReload != nil {
				p.onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error().Err(err).Str(xlog.FieldEvent, "platform.watcher_error").Msg("catalog watcher error")
		}
	}
}
