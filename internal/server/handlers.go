package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/crawler"
	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// maxImageBytes bounds a relayed image
const maxImageBytes = 10 << 20

// pageCount accepts a JSON number or a numeric string
type pageCount int

func (p *pageCount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("pages must be an integer")
	}
	*p = pageCount(n)
	return nil
}

type scrapeRequest struct {
	Source string     `json:"source"`
	City   string     `json:"city"`
	Pages  *pageCount `json:"pages"`
}

type scrapeResponse struct {
	Success    bool              `json:"success"`
	Source     string            `json:"source"`
	City       string            `json:"city"`
	Total      int               `json:"total"`
	Properties []crawler.Listing `json:"properties"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.City) == "" {
		writeError(w, http.StatusBadRequest, "Missing source or city")
		return
	}
	source, err := crawler.ParseSource(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid source")
		return
	}

	pages := 1
	if req.Pages != nil {
		pages = int(*req.Pages)
	}
	if pages < 1 || pages > s.maxPages {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("pages must be between 1 and %d", s.maxPages))
		return
	}

	listings, err := s.scraper.Crawl(r.Context(), source, req.City, pages)
	if err != nil {
		if crawlerrors.IsType(err, crawlerrors.ErrorTypeInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Str("source", string(source)).Str("city", req.City).Msg("Scrape failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if listings == nil {
		listings = []crawler.Listing{}
	}

	writeJSON(w, http.StatusOK, scrapeResponse{
		Success:    true,
		Source:     string(source),
		City:       s.canonicalCity(source, req.City),
		Total:      len(listings),
		Properties: listings,
	})
}

// canonicalCity returns the supported spelling of city for source
func (s *Server) canonicalCity(source crawler.Source, city string) string {
	city = strings.TrimSpace(city)
	for _, name := range s.scraper.Cities()[source] {
		if strings.EqualFold(name, city) {
			return name
		}
	}
	return city
}

func (s *Server) handleCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scraper.Cities())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImageProxy re-fetches an image with a referer matching its host
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "No URL provided", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	helpers.SetImageHeaders(req.Header, helpers.RefererFor(raw))

	resp, err := s.images.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("url", raw).Msg("Image fetch failed")
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug().Int("status", resp.StatusCode).Str("url", raw).Msg("Image origin refused")
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		s.log.Debug().Err(err).Str("url", raw).Msg("Image relay interrupted")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
