package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/loader"
	"github.com/KaramelBytes/tabviz/internal/pipeline"
	"github.com/KaramelBytes/tabviz/internal/session"
)

type ctxKey struct{}

// sessionCtx loads the {id} session into the request context.
func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(ctxKey{}).(*session.Session)
}

type sessionResponse struct {
	*session.Session
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

// createSession handles POST /api/sessions with a multipart "file" field.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, errMissingFile)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	ds, err := loader.Load(data, header.Filename, s.opts.Load)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := s.store.Create(ds)
	s.logger.InfoContext(r.Context(), "dataset loaded",
		slog.String("session", sess.ID),
		slog.String("file", ds.Name),
		slog.Int("rows", ds.Len()),
		slog.Int("columns", len(ds.Columns)),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionResponse{Session: sess, Warnings: ds.Warnings})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"sessions": s.store.List()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	render.JSON(w, r, sessionResponse{Session: sess, Warnings: sess.Dataset().Warnings})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(sessionFrom(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewResponse struct {
	Name     string                  `json:"name"`
	Rows     int                     `json:"rows"`
	Header   []string                `json:"header"`
	Head     [][]string              `json:"head"`
	Schema   []dataset.ColumnSummary `json:"schema"`
	Warnings []string                `json:"warnings,omitempty"`
}

// preview handles GET /api/sessions/{id}/preview?rows=N.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	n := s.opts.PreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.writeError(w, r, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "rows must be a non-negative integer", v))
			return
		}
		n = parsed
	}
	ds := sessionFrom(r).Dataset()
	render.JSON(w, r, previewResponse{
		Name:     ds.Name,
		Rows:     ds.Len(),
		Header:   ds.Names(),
		Head:     ds.Head(n),
		Schema:   dataset.Describe(ds),
		Warnings: ds.Warnings,
	})
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, pipeline.Describe(sessionFrom(r).Dataset(), s.opts.DateColumn, s.opts.CategoryColumn))
}

type groupedTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type runResponse struct {
	*pipeline.Result
	FilteredRows int           `json:"filtered_rows"`
	Grouped      *groupedTable `json:"grouped,omitempty"`
}

// run handles POST /api/sessions/{id}/run with a JSON Selection body.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var sel pipeline.Selection
	if err := render.DecodeJSON(r.Body, &sel); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, newAPIError(http.StatusBadRequest, "INVALID_JSON", "request body contains invalid JSON", err.Error()))
		return
	}
	res, err := s.execute(r, sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := runResponse{Result: res, FilteredRows: res.Filtered.Len()}
	if res.Grouped != nil {
		resp.Grouped = &groupedTable{Columns: res.Grouped.Names(), Rows: res.Grouped.Head(-1)}
	}
	render.JSON(w, r, resp)
}

// chart handles GET /api/sessions/{id}/chart; the selection comes from the query.
func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r, selectionFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Chart == nil {
		s.writeError(w, r, newAPIError(http.StatusUnprocessableEntity, "NO_CHART", "no chart for this selection", res.Advisories))
		return
	}
	renderer := s.opts.Renderer
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := chart.ParseFormat(v)
		if err != nil {
			s.writeError(w, r, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), v))
			return
		}
		renderer.Format = f
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, res.Chart); err != nil {
		if errors.Is(err, chart.ErrNothingToPlot) {
			s.writeError(w, r, newAPIError(http.StatusUnprocessableEntity, "NO_CHART", err.Error(), nil))
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", renderer.Format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

// export handles GET /api/sessions/{id}/export: the filtered rows as CSV,
// whatever the grouping or chart choice.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r, selectionFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, res.Filtered, dataset.ExportOptions{BOMPrefix: s.opts.ExportBOM}); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dataset.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.opts.ExportFilename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) execute(r *http.Request, sel pipeline.Selection) (*pipeline.Result, error) {
	sess := sessionFrom(r)
	res, err := sess.Run(sel.WithDefaults(s.opts.DateColumn, s.opts.CategoryColumn))
	if err != nil {
		return nil, err
	}
	for _, a := range res.Advisories {
		s.logger.DebugContext(r.Context(), "advisory",
			slog.String("session", sess.ID),
			slog.String("kind", string(a.Kind)),
			slog.String("message", a.Message),
		)
	}
	return res, nil
}

// selectionFromQuery reads a Selection from query parameters; list fields
// repeat (?group_by=Region&group_by=Produit).
func selectionFromQuery(r *http.Request) pipeline.Selection {
	q := r.URL.Query()
	return pipeline.Selection{
		DateColumn:     q.Get("date_column"),
		DateFrom:       q.Get("date_from"),
		DateTo:         q.Get("date_to"),
		CategoryColumn: q.Get("category_column"),
		Categories:     q["categories"],
		ValueColumn:    q.Get("value_column"),
		GroupBy:        q["group_by"],
		Chart:          q.Get("chart"),
	}
}
