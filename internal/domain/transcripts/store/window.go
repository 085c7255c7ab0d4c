// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/transcriptd/internal/relativetime"
)

// PlaybackWindow bounds playback of an item's video as HH:MM:SS offsets.
// An end of 00:00:00 plays to the end of the video.
type PlaybackWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ErrInvalidWindow is returned when a non-zero end does not follow the start.
var ErrInvalidWindow = errors.New("end time must be later than start time")

// NewPlaybackWindow normalizes free-form start and end input such as "90"
// or "1:30".
func NewPlaybackWindow(start, end string) (PlaybackWindow, error) {
	w := PlaybackWindow{StartTime: relativetime.Parse(start), EndTime: relativetime.Parse(end)}
	endSec := relativetime.Seconds(w.EndTime)
	if endSec != 0 && endSec <= relativetime.Seconds(w.StartTime) {
		return PlaybackWindow{}, fmt.Errorf("%w: %s to %s", ErrInvalidWindow, w.StartTime, w.EndTime)
	}
	return w, nil
}

// Window returns the item's playback window. Unset times read as 00:00:00.
func (i *Item) Window() PlaybackWindow {
	return PlaybackWindow{StartTime: relativetime.Parse(i.StartTime), EndTime: relativetime.Parse(i.EndTime)}
}

// SetWindow stores w on the item, creating the item when it does not exist.
// The transcripts field is left untouched.
func SetWindow(ctx context.Context, s FieldStore, itemID string, w PlaybackWindow, at time.Time) (*Item, error) {
	var out Item
	err := s.UpdateItem(ctx, itemID, func(it *Item) error {
		it.StartTime = w.StartTime
		it.EndTime = w.EndTime
		it.UpdatedAt = at.UTC()
		out = *it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
