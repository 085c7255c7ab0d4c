// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package captions detects subtitle formats and converts SubRip files to
// WebVTT, the only format the player consumes.
package captions

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is a subtitle file format.
type Format string

const (
	FormatUnknown Format = ""
	FormatSRT     Format = "srt"
	FormatVTT     Format = "vtt"
)

// ErrUnsupportedFormat is returned when content is neither SubRip nor WebVTT.
var ErrUnsupportedFormat = errors.New("unsupported caption format")

const vttHeader = "WEBVTT"

var (
	srtTiming = regexp.MustCompile(`^\s*(\d{1,2}:\d{2}:\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}:\d{2}:\d{2})[,.](\d{1,3})(.*)$`)
	anyTiming = regexp.MustCompile(`(?m)^\s*\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}\s*-->`)
)

// Decode returns content as UTF-8 text with any byte order mark removed and
// line endings normalized to "\n". UTF-16 input is recognised by its BOM.
func Decode(content []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
	if err != nil {
		return "", fmt.Errorf("decode captions: %w", err)
	}
	text := strings.ReplaceAll(string(out), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// Detect reports the format of decoded caption text.
func Detect(text string) Format {
	trimmed := strings.TrimLeft(text, " \t\n")
	if strings.HasPrefix(trimmed, vttHeader) {
		rest := trimmed[len(vttHeader):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' {
			return FormatVTT
		}
	}
	if anyTiming.MatchString(text) {
		return FormatSRT
	}
	return FormatUnknown
}

// ToVTT converts raw caption content to WebVTT. WebVTT input is returned
// normalized; SubRip input gets a header and dotted millisecond separators.
func ToVTT(content []byte) ([]byte, error) {
	text, err := Decode(content)
	if err != nil {
		return nil, err
	}
	switch Detect(text) {
	case FormatVTT:
		return []byte(ensureTrailingNewline(strings.TrimLeft(text, " \t\n"))), nil
	case FormatSRT:
		return srtToVTT(text), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func srtToVTT(text string) []byte {
	var buf bytes.Buffer
	buf.WriteString(vttHeader)
	buf.WriteString("\n\n")

	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	for i, line := range lines {
		if m := srtTiming.FindStringSubmatch(line); m != nil {
			fmt.Fprintf(&buf, "%s.%s --> %s.%s%s",
				padHours(m[1]), padMillis(m[2]), padHours(m[3]), padMillis(m[4]), strings.TrimRight(m[5], " "))
		} else {
			buf.WriteString(line)
		}
		if i < len(lines)-1 {
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func padHours(ts string) string {
	if len(ts) == len("0:00:00") {
		return "0" + ts
	}
	return ts
}

func padMillis(ms string) string {
	for len(ms) < 3 {
		ms += "0"
	}
	return ms
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
