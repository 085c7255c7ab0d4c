// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upload validates candidate files before they are submitted to the
// asset handler.
package upload

import (
	"fmt"
	"slices"
	"strings"
)

// Context names the content slot a file is uploaded into.
type Context string

const (
	// ContextTranscripts accepts subtitle files only.
	ContextTranscripts Context = "transcripts"
	// ContextHandout accepts the broader document whitelist.
	ContextHandout Context = "handout"
)

// MaxFileSize is the upload cap in bytes (300 KB).
const MaxFileSize int64 = 300 * 1024

var transcriptExtensions = []string{"vtt", "srt"}

var handoutExtensions = []string{
	"gif", "ico", "jpg", "jpeg", "png", "tif", "tiff", "bmp", "svg",
	"pdf", "txt", "rtf", "csv",
	"doc", "docx", "xls", "xlsx", "ppt", "pptx", "pub",
	"odt", "ods", "odp",
	"zip", "7z", "gzip", "tar",
	"html", "xml", "js", "sjson",
}

// Candidate describes a file the author wants to upload.
type Candidate struct {
	Filename string
	Size     int64
	Context  Context
}

// Result is the verdict for a candidate. Reason is empty when Valid.
type Result struct {
	Valid  bool
	Reason string
}

// AllowedExtensions returns the accepted extensions for ctx. Any context
// other than transcripts uses the handout whitelist.
func AllowedExtensions(ctx Context) []string {
	src := handoutExtensions
	if ctx == ContextTranscripts {
		src = transcriptExtensions
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Extension returns the lower-cased text after the last dot of filename, or
// "" when the name has no dot.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Validate checks the extension and size of c against its context.
func Validate(c Candidate) Result {
	allowed := AllowedExtensions(c.Context)
	ext := Extension(c.Filename)

	var problems []string
	if ext == "" || !slices.Contains(allowed, ext) {
		problems = append(problems, fmt.Sprintf("Please upload a file of %s format only.", describe(allowed)))
	}
	if c.Size > MaxFileSize {
		problems = append(problems, fmt.Sprintf("Please upload a file of %d KB maximum.", MaxFileSize/1024))
	}
	if len(problems) == 0 {
		return Result{Valid: true}
	}
	return Result{
		Reason: fmt.Sprintf("Couldn't upload %q. %s", c.Filename, strings.Join(problems, " ")),
	}
}

func describe(exts []string) string {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = fmt.Sprintf("%q", e)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	if len(quoted) == 2 {
		return quoted[0] + " or " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
