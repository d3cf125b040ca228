package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

//go:embed content/advent.json
var defaultContent []byte

type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
	MediaDocument  MediaKind = "document"
)

func (k MediaKind) valid() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaAnimation, MediaDocument:
		return true
	}
	return false
}

type Media struct {
	Kind MediaKind
	Ref  string // Telegram file_id or URL
}

type DayEntry struct {
	Text  string
	Media []Media
}

// Content is the ordered, read-only list of days. Index i is day i+1.
type Content struct {
	days []DayEntry
}

func (c *Content) Len() int {
	return len(c.days)
}

func (c *Content) Day(idx int) (DayEntry, bool) {
	if idx < 0 || idx >= len(c.days) {
		return DayEntry{}, false
	}
	return c.days[idx], true
}

// On-disk format, kept compatible with the original content file:
// {"days": [{"text": "...", "media": [{"type": "photo", "file_id": "..."}]}]}
type rawContent struct {
	Days []rawDay `json:"days"`
}

type rawDay struct {
	Text  string     `json:"text"`
	Media []rawMedia `json:"media"`
}

type rawMedia struct {
	Type   string `json:"type"`
	FileID string `json:"file_id"`
}

// loadContent reads the content file at path, or the embedded default when path is empty.
func loadContent(path string) (*Content, error) {
	data := defaultContent
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
		data = b
	}
	return parseContent(data)
}

func parseContent(data []byte) (*Content, error) {
	var raw rawContent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if len(raw.Days) == 0 {
		return nil, errors.New("content has no days")
	}

	content := &Content{days: make([]DayEntry, 0, len(raw.Days))}
	for i, rd := range raw.Days {
		day := DayEntry{Text: strings.TrimSpace(rd.Text)}
		for j, rm := range rd.Media {
			m, err := parseMedia(rm)
			if err != nil {
				log.Printf("parseContent: day %d media %d skipped: %v", i+1, j+1, err)
				continue
			}
			day.Media = append(day.Media, m)
		}
		if day.Text == "" && len(day.Media) == 0 {
			return nil, fmt.Errorf("day %d has neither text nor media", i+1)
		}
		content.days = append(content.days, day)
	}
	return content, nil
}

func parseMedia(rm rawMedia) (Media, error) {
	kind := MediaKind(strings.ToLower(strings.TrimSpace(rm.Type)))
	ref := strings.TrimSpace(rm.FileID)
	if !kind.valid() {
		return Media{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMedia, rm.Type)
	}
	if ref == "" {
		return Media{}, fmt.Errorf("%w: empty file_id for %s", ErrMalformedMedia, kind)
	}
	return Media{Kind: kind, Ref: ref}, nil
}
