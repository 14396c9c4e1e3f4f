package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/pipeline"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// systemSummary is one entry of GET /api/systems.
type systemSummary struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := catalog.ListSystems(r.Context(), s.runner.Catalog)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeCatalogFetch, err, "list systems"))
		return
	}
	out := make([]systemSummary, 0, len(systems))
	for _, e := range systems {
		out = append(out, systemSummary{
			ID:          catalog.DisplayID(e.Ref()),
			Ref:         e.Ref().String(),
			Title:       e.Metadata.Title,
			Description: e.Metadata.Description,
			Owner:       e.Spec.Owner,
			Domain:      e.Spec.Domain,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := s.runner.BuildGraph(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	hash, err := g.Hash()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "hash graph"))
		return
	}
	if notModified(w, r, strconv.Quote(hash)) {
		return
	}
	w.Header().Set("Content-Type", render.FormatJSON.ContentType())
	if err := graph.WriteGraph(g, w); err != nil {
		s.logger.Error("write graph", "err", err)
	}
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{string(format)}
	opts.Direction = r.URL.Query().Get("direction")
	if opts.Direction == "" {
		opts.Direction = s.opts.Direction
	}
	opts.Detailed = s.opts.Detailed
	if v := r.URL.Query().Get("detailed"); v != "" {
		if opts.Detailed, err = strconv.ParseBool(v); err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "detailed must be a boolean"))
			return
		}
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	body := res.Artifacts[format]
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	if notModified(w, r, strconv.Quote(cache.Hash(body))) {
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(body)
}

// notModified sets the ETag and answers 304 when If-None-Match already
// names it. Weak validators compare by value.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	match := r.Header.Get("If-None-Match")
	if match == "" {
		return false
	}
	for _, tag := range strings.Split(match, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == "*" || tag == etag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

// options builds pipeline options for the system named in the path.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	ns := chi.URLParam(r, "namespace")
	name := chi.URLParam(r, "name")
	opts := pipeline.Options{
		System:  "system:" + ns + "/" + name,
		Refresh: r.URL.Query().Get("refresh") == "true",
		Logger:  s.logger,
	}
	if err := opts.ValidateForFetch(); err != nil {
		return opts, err
	}
	return opts, nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func notFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), errorBody{
		Code:    errors.GetCodeOr(err, errors.ErrCodeInternal),
		Message: errors.UserMessage(err),
	})
}
