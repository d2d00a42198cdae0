package server

import (
	"errors"
	"html/template"
	"net/http"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/users"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Banner is a dismissible message shown above the page.
type Banner struct {
	Title       string
	Code        string
	Description string
	Hint        string
}

// PageData is shared by the landing page and the app shell.
type PageData struct {
	AppName    string
	Banner     *Banner
	CleanURL   string
	StripQuery bool

	// App shell only
	DisplayName string
	UserID      string
	Username    string
	Tier        string
	CanShare    bool
}

type pages struct {
	landing *template.Template
	app     *template.Template
}

func mustParsePages() pages {
	landing, err := ParseTemplate("landing.html")
	if err != nil {
		panic("Failed to parse landing template: " + err.Error())
	}
	app, err := ParseTemplate("app.html")
	if err != nil {
		panic("Failed to parse app template: " + err.Error())
	}
	return pages{landing: landing, app: app}
}

func (s *Server) pageData(err error) PageData {
	return PageData{
		AppName: s.config.GetAppName(),
		Banner:  bannerFor(err),
	}
}

func withProfile(data PageData, profile users.Profile) PageData {
	tier := profile.Tier()
	data.DisplayName = profile.DisplayName()
	data.UserID = profile.UserID
	data.Username = profile.Username
	data.Tier = tier.String()
	data.CanShare = tier.CanShare()
	return data
}

func render(w http.ResponseWriter, tmpl *template.Template, data PageData) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render page")
	}
}

// bannerFor turns a sign-in failure into the message shown to the user.
// Provider codes and descriptions are shown verbatim.
func bannerFor(err error) *Banner {
	if err == nil {
		return nil
	}

	var exchangeErr *apperrors.TokenExchangeError
	var callbackErr *apperrors.CallbackError

	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		return &Banner{Title: "Sign-in is not configured", Description: err.Error()}
	case errors.As(err, &exchangeErr):
		return &Banner{
			Title:       "Sign-in failed",
			Code:        exchangeErr.Code,
			Description: exchangeErr.Description,
			Hint:        exchangeErr.Hint,
		}
	case errors.As(err, &callbackErr):
		return &Banner{
			Title:       "Sign-in was not completed",
			Code:        callbackErr.Code,
			Description: callbackErr.Description,
		}
	default:
		return &Banner{Title: "Something went wrong", Description: err.Error()}
	}
}
