package server

import (
	"net/http"
	"strings"

	"github.com/richinex/staxchange/auth"
)

const callbackPath = "/github-oauth-callback"

// origin returns the scheme and host the browser used to reach us.
func (s *Server) origin(r *http.Request) string {
	if s.opts.PublicURL != "" {
		return strings.TrimRight(s.opts.PublicURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host, _, _ = strings.Cut(fwd, ",")
		host = strings.TrimSpace(host)
	}
	return scheme + "://" + host
}

func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")
	redirectURI := s.origin(r) + callbackPath

	target, err := s.opts.OAuth.AuthCodeURL(redirectURI, returnTo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("oauth start", "redirect_uri", redirectURI)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	returnTo := auth.DecodeState(q.Get("state"))
	redirectURI := s.origin(r) + r.URL.Path

	token, err := s.opts.OAuth.Exchange(r.Context(), q.Get("code"), redirectURI)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("oauth callback", "return_to", returnTo)
	// Location is set verbatim so returnTo is not path-cleaned.
	w.Header().Set("Location", auth.TokenRedirect(returnTo, token))
	w.WriteHeader(http.StatusFound)
}
