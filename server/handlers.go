package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/richinex/staxchange/archive"
	"github.com/richinex/staxchange/convert"
	"github.com/richinex/staxchange/model"
)

var (
	errNoFiles       = errors.New("No files provided")
	errMissingFields = errors.New("Missing fields")
	errMissingToken  = errors.New("Missing token")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// fileList decodes raw as a file array. ok is false when raw is not a JSON array.
func fileList(raw json.RawMessage) (files []model.SourceFile, ok bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	if err := json.Unmarshal(trimmed, &files); err != nil {
		return nil, true, fmt.Errorf("invalid files: %w", err)
	}
	return files, true, nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convert.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.opts.Pipeline.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": result.Files})
}

func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Files json.RawMessage `json:"files"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	files, ok, err := fileList(body.Files)
	if !ok {
		s.writeError(w, r, errNoFiles)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := archive.WriteZip(&buf, files); err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", archive.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", archive.Filename))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportGitHub(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string          `json:"token"`
		RepoName string          `json:"repoName"`
		Files    json.RawMessage `json:"files"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	files, ok, err := fileList(body.Files)
	if body.Token == "" || body.RepoName == "" || !ok {
		s.writeError(w, r, errMissingFields)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	htmlURL, err := s.opts.GitHub.ExportRepo(r.Context(), body.Token, body.RepoName, files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html_url": htmlURL})
}

func (s *Server) handleGitHubRepos(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token  string `json:"token"`
		Action string `json:"action"`
		Owner  string `json:"owner"`
		Repo   string `json:"repo"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Token == "" {
		s.writeError(w, r, errMissingToken)
		return
	}

	if body.Action == "branches" {
		list, err := s.opts.GitHub.ListBranches(r.Context(), body.Token, body.Owner, body.Repo)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	repos, err := s.opts.GitHub.ListRepos(r.Context(), body.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}
