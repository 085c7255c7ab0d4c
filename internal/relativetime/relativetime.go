// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package relativetime normalizes free-form "relative time" input such as
// "12:30" or "1234" into a canonical HH:MM:SS string capped at one day.
package relativetime

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxSeconds is the largest representable offset (23:59:59).
const MaxSeconds = 24*60*60 - 1

// Parse converts value into HH:MM:SS. Unparseable components count as zero
// and the total is clamped to MaxSeconds. Parse never fails.
func Parse(value string) string {
	return Format(Seconds(value))
}

// Seconds returns the clamped offset in seconds represented by value.
// Components are separated by ':' and read right to left as seconds,
// minutes, hours, with further components continuing in powers of 60.
func Seconds(value string) int {
	value = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)

	parts := strings.Split(value, ":")
	total := 0
	multiplier := 1
	for i := len(parts) - 1; i >= 0; i-- {
		n := leadingInt(parts[i])
		if n > 0 {
			if n > MaxSeconds/multiplier {
				return MaxSeconds
			}
			total += n * multiplier
			if total >= MaxSeconds {
				return MaxSeconds
			}
		}
		if multiplier > MaxSeconds {
			// Any further non-zero component exceeds the cap.
			for j := i - 1; j >= 0; j-- {
				if leadingInt(parts[j]) > 0 {
					return MaxSeconds
				}
			}
			break
		}
		multiplier *= 60
	}
	return total
}

// Format renders seconds as HH:MM:SS after clamping to [0, MaxSeconds].
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > MaxSeconds {
		seconds = MaxSeconds
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// leadingInt reads an optional sign followed by decimal digits and ignores
// anything after the first non-digit. Missing digits or a negative value
// yield zero. Large values saturate instead of overflowing.
func leadingInt(s string) int {
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		if n <= MaxSeconds*60 {
			n = n*10 + int(c-'0')
		}
	}
	if negative {
		return 0
	}
	return n
}
