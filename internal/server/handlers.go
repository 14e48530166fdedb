package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/logger"
)

func logFor(r *http.Request) *logger.Logger {
	return logger.FromContext(r.Context())
}

// health handles GET /healthz
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	v := healthView{Status: "ok", Tables: s.cat.Len()}
	if s.db != nil {
		v.Database = s.db.Dialect().String()
		if err := s.db.Ping(r.Context()); err != nil {
			logFor(r).ErrorWith("database ping failed", err, nil)
			v.Status = "degraded"
			writeJSON(w, r, http.StatusServiceUnavailable, v)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, v)
}

// listTables handles GET /tables
func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	out := make([]tableSummary, 0, s.cat.Len())
	for t := range s.cat.Tables() {
		out = append(out, summarize(t))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"tables": out})
}

// getTable handles GET /tables/{name}
func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.cat.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTableView(t))
}

// getKey handles GET /tables/{name}/key
func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	t, err := s.cat.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := newKeyView(t)
	v.Table = t.Name
	writeJSON(w, r, http.StatusOK, v)
}

// getDDL handles GET /tables/{name}/ddl?dialect=
func (s *Server) getDDL(w http.ResponseWriter, r *http.Request) {
	t, err := s.cat.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	d := database.DialectPostgres
	if s.db != nil {
		d = s.db.Dialect()
	}
	if name := r.URL.Query().Get("dialect"); name != "" {
		if d, err = database.ParseDialect(name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(database.DDL(t, d)))
}

// getChoices handles GET /tables/{name}/fields/{field}/choices
//
// Without parameters it lists the field's choices. ?value=v checks v for
// membership and ?null checks the null sentinel. Membership is advisory:
// a non-member still answers 200.
func (s *Server) getChoices(w http.ResponseWriter, r *http.Request) {
	name, fieldName := chi.URLParam(r, "name"), chi.URLParam(r, "field")
	t, err := s.cat.Get(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, ok := t.Field(fieldName)
	if !ok {
		writeError(w, r, errs.Newf(errs.ErrKindNotFound, "%s has no field %q", t.Name, fieldName))
		return
	}

	q := r.URL.Query()
	var value any
	switch {
	case q.Has("null"):
		value = nil
	case q.Has("value"):
		value = q.Get("value")
	default:
		writeJSON(w, r, http.StatusOK, choicesView{
			Table:   t.Name,
			Field:   f.Name,
			Column:  f.ColumnName(),
			Choices: orEmpty(choiceViews(f)),
		})
		return
	}

	v := membershipView{
		Table:  t.Name,
		Field:  f.Name,
		Value:  value,
		Member: s.cat.ValidateChoiceMembership(t.Name, f.Name, value),
		Label:  s.cat.ChoiceLabel(t.Name, f.Name, value),
	}
	if nv, ok := catalog.NormalizeChoiceValue(f.Kind, value); ok {
		v.Value = jsonValue(f.Kind, nv)
	}
	writeJSON(w, r, http.StatusOK, v)
}

func orEmpty(cs []choiceView) []choiceView {
	if cs == nil {
		return []choiceView{}
	}
	return cs
}
