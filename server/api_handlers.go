package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/homeschool-portal/activities"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/users"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxRequestBody  = 1 << 20
)

// signedIn is the caller of an authenticated API route.
type signedIn struct {
	profile users.Profile
	idToken string
}

// requireSession loads the caller's profile and ID token. When there is no
// usable session it answers 401 with the login route so the page can redirect.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (signedIn, bool) {
	sess := s.session(r)
	profile, err := sess.GetCurrentUser(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return signedIn{}, false
	}
	idToken, ok := sess.GetIdentityToken(r.Context())
	if !ok {
		s.writeAPIError(w, &apperrors.NoValidSessionError{Reason: "no unexpired identity token"})
		return signedIn{}, false
	}
	return signedIn{profile: profile, idToken: idToken}, true
}

// GenerateHandler forwards an activity request for the signed-in user.
func (s *Server) GenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		payload, err := readJSONBody(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		out, err := s.activities.Generate(r.Context(), caller.idToken, caller.profile.UserID, payload)
		if err != nil {
			s.writeAPIError(w, err)
			return
		}
		writeRawJSON(w, http.StatusOK, out)
	}
}

type historyResponse struct {
	Activities []activities.HistoryItem `json:"activities"`
	Grades     []string                 `json:"grades"`
	Subjects   []string                 `json:"subjects"`
}

// HistoryHandler lists the user's activities, filtered and sorted by the
// grade, subject, search, sort and dir query parameters.
func (s *Server) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.requireSession(w, r)
		if !ok {
			return
		}

		items, err := s.activities.History(r.Context(), caller.idToken, caller.profile.Username, nil)
		if err != nil {
			s.writeAPIError(w, err)
			return
		}

		q := r.URL.Query()
		direction := activities.Descending
		if q.Get("dir") == string(activities.Ascending) {
			direction = activities.Ascending
		}
		sortKey := q.Get("sort")
		if sortKey == "" {
			sortKey = "createdAt"
		}
		filtered := activities.FilterAndSort(items,
			activities.HistoryFilter{Grade: q.Get("grade"), Subject: q.Get("subject"), SearchTerm: q.Get("search")},
			activities.SortConfig{Key: sortKey, Direction: direction},
		)

		writeJSON(w, http.StatusOK, historyResponse{
			Activities: filtered,
			Grades:     activities.UniqueGrades(items),
			Subjects:   activities.UniqueSubjects(items),
		})
	}
}

// FeedbackHandler accepts feedback from anyone; signed-in users are identified.
func (s *Server) FeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readJSONBody(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		var token, userID string
		sess := s.session(r)
		if profile, err := sess.GetCurrentUser(r.Context()); err == nil {
			userID = profile.UserID
			token, _ = sess.GetIdentityToken(r.Context())
		}

		out, err := s.activities.SubmitFeedback(r.Context(), token, userID, payload, r.UserAgent())
		if err != nil {
			s.writeAPIError(w, err)
			return
		}
		writeRawJSON(w, http.StatusOK, out)
	}
}

type shareRequest struct {
	Items []activities.ShareRequest `json:"items"`
}

// ShareHandler publishes history items. Only member and premium tiers may share.
func (s *Server) ShareHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		if !caller.profile.Tier().CanShare() {
			writeJSONError(w, "forbidden", "sharing requires a member or premium account", http.StatusForbidden)
			return
		}

		var req shareRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be {\"items\": [...]}", http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			writeJSONError(w, "invalid_request", "select at least one item to share", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, s.activities.ShareAll(r.Context(), caller.idToken, req.Items))
	}
}

// DownloadHandler returns a short-lived link to an activity PDF.
func (s *Server) DownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		key := r.URL.Query().Get("key")
		if key == "" {
			writeJSONError(w, "invalid_request", "key is required", http.StatusBadRequest)
			return
		}

		link, err := s.activities.DownloadURL(r.Context(), caller.idToken, key, caller.profile.UserID, r.URL.Query().Get("bucket"))
		if err != nil {
			s.writeAPIError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

const maxBatchDownloads = 50

type downloadsRequest struct {
	Items []activities.DownloadItem `json:"items"`
}

// DownloadAllHandler returns links for several PDFs at once. Each item
// reports its own success.
func (s *Server) DownloadAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.requireSession(w, r)
		if !ok {
			return
		}

		var req downloadsRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be {\"items\": [...]}", http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 || len(req.Items) > maxBatchDownloads {
			writeJSONError(w, "invalid_request", fmt.Sprintf("select between 1 and %d items", maxBatchDownloads), http.StatusBadRequest)
			return
		}
		for _, item := range req.Items {
			if item.Key == "" {
				writeJSONError(w, "invalid_request", "every item needs a key", http.StatusBadRequest)
				return
			}
		}

		results := s.activities.DownloadAll(r.Context(), caller.idToken, caller.profile.UserID, req.Items)
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

// writeAPIError maps errors to responses. Session problems, including a token
// the activity API no longer accepts, become 401 with the login route.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *activities.APIError
	switch {
	case errors.Is(err, apperrors.ErrNoValidSession), errors.Is(err, apperrors.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "no_valid_session",
			"error_description": "sign in again",
			"login":             RouteLogin,
		})
	case errors.Is(err, apperrors.ErrConfiguration):
		log.Error().Err(err).Msg("Activity API is not configured")
		writeJSONError(w, "configuration_error", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, apperrors.ErrForbidden):
		writeJSONError(w, "forbidden", "access denied", http.StatusForbidden)
	case errors.As(err, &apiErr):
		writeJSONError(w, "upstream_error", apiErr.Message, http.StatusBadGateway)
	default:
		log.Err(err).Msg("API request failed")
		writeJSONError(w, "server_error", "request failed", http.StatusBadGateway)
	}
}

func readJSONBody(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 && !json.Valid(body) {
		return nil, errors.New("body must be JSON")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	_, _ = w.Write(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
