package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// Form field names.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldObject      = "object"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageIndex, pageData{Records: records})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageRead, pageData{Record: rec})
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageCreate, pageData{})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	values, ok := s.postFields(w, r, fieldTitle, fieldDescription)
	if !ok {
		return
	}
	id, err := s.records.Insert(r.Context(), values[0], values[1])
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	requestLogger(r.Context(), s.logger).Debug("record created", "id", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDelete treats an absent id as a no-op and still redirects.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	err := s.records.Delete(r.Context(), id)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageUpdate, pageData{Record: rec})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	values, ok := s.postFields(w, r, fieldTitle, fieldDescription)
	if !ok {
		return
	}
	err := s.records.Update(r.Context(), id, values[0], values[1])
	if errors.Is(err, types.ErrNotFound) {
		s.notFound(w, r, fmt.Sprintf("Record %d does not exist.", id))
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// searchHandler serves one of the three substring searches. The term is
// read from the "object" field of the form body or the query string.
func (s *Server) searchHandler(field types.SearchField) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			s.badRequest(w, r, "The form could not be parsed.")
			return
		}
		values, ok := r.Form[fieldObject]
		if !ok {
			s.badRequest(w, r, fmt.Sprintf("Missing form field %q.", fieldObject))
			return
		}
		query := values[0]

		records, err := s.records.Search(r.Context(), field, query)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, pageSearch, pageData{
			Records: records,
			Query:   query,
			Field:   field.String(),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.opts.Health != nil {
		if err := s.opts.Health.Ping(r.Context()); err != nil {
			requestLogger(r.Context(), s.logger).Warn("health check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "unavailable")
			return
		}
	}
	fmt.Fprintln(w, "ok")
}

// pathID parses the {id} path segment. Writes a 400 page and returns false
// when it is not a positive integer.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(w, r, fmt.Sprintf("Invalid record id %q.", raw))
		return 0, false
	}
	return id, true
}

// lookup fetches a record, writing a 404 or 500 page on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id int64) (types.Record, bool) {
	rec, err := s.records.Get(r.Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		s.notFound(w, r, fmt.Sprintf("Record %d does not exist.", id))
		return types.Record{}, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return types.Record{}, false
	}
	return rec, true
}

// postFields parses a form body and returns the named fields in order.
// Writes a 400 page and returns false if the body is malformed or any
// field is missing. Present but empty fields are accepted.
func (s *Server) postFields(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, r, "The form could not be parsed.")
		return nil, false
	}
	values := make([]string, len(names))
	for i, name := range names {
		v, ok := r.PostForm[name]
		if !ok {
			s.badRequest(w, r, fmt.Sprintf("Missing form field %q.", name))
			return nil, false
		}
		values[i] = v[0]
	}
	return values, true
}
