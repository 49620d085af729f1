// Package storage persists crawl results as JSON files or Postgres rows.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/estateworker/internal/crawler"
	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// FileName returns "<source>_<city>_<YYYYMMDD_HHMMSS>.json"
func FileName(source crawler.Source, city string, now time.Time) string {
	city = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(city), " ", "_"))
	return fmt.Sprintf("%s_%s_%s.json", source, city, now.Format("20060102_150405"))
}

// SaveJSON writes listings as an indented UTF-8 JSON array into dir and returns the file path
func SaveJSON(dir string, source crawler.Source, city string, listings []crawler.Listing, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", crawlerrors.NewStorage("failed to create output directory", err)
	}
	if listings == nil {
		listings = []crawler.Listing{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		return "", crawlerrors.NewStorage("failed to encode listings", err)
	}

	path := filepath.Join(dir, FileName(source, city, now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", crawlerrors.NewStorage("failed to write "+path, err)
	}
	return path, nil
}
