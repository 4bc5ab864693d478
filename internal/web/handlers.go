package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/ops"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// listPath returns the list page path for kind, e.g. "/checks".
func listPath(kind thread.Kind) string {
	return "/" + thread.Noun(kind, true)
}

// HandleList returns the handler for GET /threads, /checks and /codemods.
// The q parameter holds the active query; without it the page shows the
// open items of the kind.
func (h *Handlers) HandleList(kind thread.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := ops.ListInput{
			Kind:           string(kind),
			Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
			Offset:         parseIntParam(r, "offset", 0),
			IncludeDeleted: parseBoolParam(r, "include_deleted"),
		}
		if raw, ok := query.FromURL(r.URL.RawQuery); ok {
			input.Query = &raw
		}

		result, err := ops.List(r.Context(), h.db, h.cfg, input)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}

		if wantsJSON(r) {
			renderJSON(w, http.StatusOK, result)
			return
		}

		path := listPath(kind)
		// Changing the query starts over at the first page.
		base := r.URL.Query()
		base.Del("offset")

		links := make([]HeaderLink, 0, len(result.Links))
		for _, l := range result.Links {
			links = append(links, HeaderLink{
				Label:  l.Label,
				Count:  l.Count,
				URL:    path + "?" + query.URLForQuery(base.Encode(), l.Query),
				Active: l.Active,
			})
		}

		data := ListPageData{
			PageData: PageData{
				Title:   capitalize(thread.Noun(kind, true)),
				Version: h.renderer.version,
				Nav:     thread.Noun(kind, true),
			},
			Kind:       kind,
			Path:       path,
			Query:      result.Query,
			Items:      result.Items,
			Pagination: result.Pagination,
			Links:      links,
			Deleted:    input.IncludeDeleted,
		}

		p := result.Pagination
		if p.Offset > 0 {
			data.PrevURL = pageURL(path, r.URL.Query(), max(p.Offset-p.Limit, 0))
		}
		if p.HasMore {
			data.NextURL = pageURL(path, r.URL.Query(), p.Offset+p.Limit)
		}
		if len(result.Items) == 0 {
			data.EmptyNotice = "No " + thread.Noun(kind, true) + " match this query."
		}

		h.renderer.renderPage(w, r, "list", data)
	}
}

// HandleDetail handles GET /threads/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("thread ID is required"))
		return
	}

	t, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, t)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   t.Title,
			Version: h.renderer.version,
			Nav:     thread.Noun(t.Kind, true),
		},
		Thread:       t,
		RenderedHTML: h.renderer.renderMarkdown(t.Body),
		ListURL:      listPath(t.Kind),
		Statuses:     thread.Statuses,
	})
}

// HandleSetStatus handles POST /threads/{id}/status with a "status" form field.
func (h *Handlers) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.SetStatus(r.Context(), h.db, ops.SetStatusInput{
		ID:     id,
		Status: r.FormValue("status"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	target := "/threads/" + url.PathEscape(result.ID)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleDelete handles DELETE /threads/{id}: soft-deletes a thread.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	back := listPath(t.Kind)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", back)
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, back, http.StatusFound)
}

// HandlePurge handles POST /threads/purge: permanently deletes soft-deleted threads.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/threads?include_deleted=true", http.StatusFound)
}

// pageURL returns path with params and the offset replaced.
func pageURL(path string, params url.Values, offset int) string {
	params.Set("offset", strconv.Itoa(offset))
	return path + "?" + params.Encode()
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
