// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/cache"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/editor"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
	"github.com/ManuGH/transcriptd/internal/health"
	"github.com/ManuGH/transcriptd/internal/videoplatform"
)

const (
	testItemID  = "item-1"
	testVideoID = "vid-1"

	downloadBase = V1BaseURL + "/transcripts/download"
	vttBase      = V1BaseURL + "/transcripts/vtt"
)

const testCatalog = `videos:
  vid-1:
    - lang: en
      label: English
      url: captions/en.srt
    - lang: fr
      label: French
      url: captions/fr.vtt
    - lang: de
      label: German
      url: captions/missing.vtt
`

const (
	enSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello there\n"
	frVTT = "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nBonjour\n"
	ukSRT = "1\n00:00:03,000 --> 00:00:04,000\nPryvit\n"
)

type testEnv struct {
	t       *testing.T
	srv     *httptest.Server
	server  *Server
	items   *store.MemoryStore
	assets  *assets.DiskStore
	service *handlers.Service
	manager *editor.Manager
}

type envOptions struct {
	cfg            Config
	remoteHandlers bool
	noHandlers     bool
	noItems        bool
}

func newTestEnv(t *testing.T, opt envOptions) *testEnv {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "captions"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "captions", "en.srt"), []byte(enSRT), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "captions", "fr.vtt"), []byte(frVTT), 0o600))
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0o600))

	provider, err := videoplatform.NewFileProvider(catalog)
	require.NoError(t, err)
	diskStore, err := assets.NewDiskStore(filepath.Join(dir, "assets"))
	require.NoError(t, err)

	items := store.NewMemoryStore()
	require.NoError(t, items.PutItem(ctx, &store.Item{ItemID: testItemID, VideoID: testVideoID}))

	env := &testEnv{
		t:       t,
		items:   items,
		assets:  diskStore,
		service: handlers.NewService(provider, diskStore),
	}

	// The server is started before the manager exists so remote handlers
	// can point at it.
	var root http.Handler = http.NotFoundHandler()
	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		root.ServeHTTP(w, r)
	}))
	t.Cleanup(env.srv.Close)

	var sessionHandlers handlers.Handlers = env.service
	if opt.remoteHandlers {
		client, err := handlers.NewClient(env.srv.URL, 5*time.Second)
		require.NoError(t, err)
		sessionHandlers = client
	}

	env.manager = editor.NewManager(editor.ManagerConfig{
		Items:        items,
		Index:        videoplatform.NewIndexService(provider, cache.NewMemoryCache(0), time.Minute),
		Handlers:     sessionHandlers,
		Sink:         store.Flusher{Store: items},
		DownloadBase: downloadBase,
		VTTBase:      vttBase,
		IdleTimeout:  time.Hour,
	})

	deps := Deps{Sessions: env.manager, Health: health.NewManager("test")}
	if !opt.noHandlers {
		deps.Handlers = env.service
	}
	if !opt.noItems {
		deps.Items = items
	}
	env.server, err = New(opt.cfg, deps)
	require.NoError(t, err)
	root = env.server
	return env
}

// do sends a request and decodes a JSON response into out when out is set.
func (e *testEnv) do(method, path string, body io.Reader, contentType string, out any) *http.Response {
	e.t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(e.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) doJSON(method, path string, in, out any) *http.Response {
	e.t.Helper()
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(e.t, err)
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return e.do(method, path, body, contentType, out)
}

func (e *testEnv) openSession() sessionResponse {
	e.t.Helper()
	var sess sessionResponse
	resp := e.doJSON(http.MethodPost, V1BaseURL+"/items/"+testItemID+"/sessions", nil, &sess)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	return sess
}

func (e *testEnv) action(id fmt.Stringer, a editor.Action, out any) *http.Response {
	e.t.Helper()
	raw, err := editor.EncodeAction(a)
	require.NoError(e.t, err)
	return e.do(http.MethodPost, sessionPath(id, "actions"), bytes.NewReader(raw), "application/json", out)
}

func sessionPath(id fmt.Stringer, rest ...string) string {
	p := V1BaseURL + "/sessions/" + id.String()
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func findSlot(t *testing.T, sess sessionResponse, lang string) editor.SlotView {
	t.Helper()
	for _, s := range sess.Slots {
		if s.Lang == lang {
			return s
		}
	}
	t.Fatalf("slot %q not found in %+v", lang, sess.Slots)
	return editor.SlotView{}
}
