package server

import (
	"context"
	"net/http"

	"tailscale.com/client/tailscale/apitype"
)

type contextKey string

const userInfoKey contextKey = "user_info"

// UserInfo identifies the caller. Without Tailscale every caller is the
// local user.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var localUser = UserInfo{Login: "local", DisplayName: "Local User"}

// WhoIser resolves a tailnet peer address to its identity. *local.Client
// from tsnet satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// SetTailscale enables tailnet identity lookups for incoming requests.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// identity stores the caller's UserInfo in the request context.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := localUser
		if s.whois != nil {
			who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil {
				s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
			} else if who.UserProfile != nil {
				info = UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			}
		}
		ctx := context.WithValue(r.Context(), userInfoKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return localUser
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}
