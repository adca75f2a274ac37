// ABOUTME: Route handlers for sessions, injuries, insights, analytics, and the summary.
// ABOUTME: Bodies and responses are camelCase JSON.
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/calendar"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
)

func sessionFilter(r *http.Request) (storage.SessionFilter, error) {
	q := r.URL.Query()
	f := storage.SessionFilter{From: q.Get("from"), To: q.Get("to")}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := models.ParseDate(d); err != nil {
			return f, err
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, models.ErrInvalid
		}
		f.Limit = n
	}
	return f, nil
}

// --- Sessions ---

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	f, err := sessionFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid session filter")
		return
	}
	sessions, err := s.repo.ListSessions(r.Context(), f)
	if err != nil {
		s.fail(w, r, err, "Session not found", "Failed to fetch sessions")
		return
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

func (s *Server) listWeeks(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.repo.ListSessions(r.Context(), storage.SessionFilter{})
	if err != nil {
		s.fail(w, r, err, "Session not found", "Failed to fetch sessions")
		return
	}
	respondWithJSON(w, http.StatusOK, calendar.GroupByWeek(sessions))
}

func (s *Server) listCalendar(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.repo.ListSessions(r.Context(), storage.SessionFilter{})
	if err != nil {
		s.fail(w, r, err, "Session not found", "Failed to fetch sessions")
		return
	}
	respondWithJSON(w, http.StatusOK, calendar.CalendarRows(sessions, s.assembler.Today()))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Session not found", "Failed to fetch session")
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var in models.SessionInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err, "", "Failed to create session")
		return
	}
	session, err := models.NewSessionFromInput(in)
	if err != nil {
		s.fail(w, r, err, "", "Failed to create session")
		return
	}
	if err := s.repo.CreateSession(r.Context(), session); err != nil {
		s.fail(w, r, err, "", "Failed to create session")
		return
	}
	respondWithJSON(w, http.StatusCreated, session)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	var in models.SessionInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err, "", "Failed to update session")
		return
	}
	session, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Session not found", "Failed to update session")
		return
	}
	if err := in.Apply(session); err != nil {
		s.fail(w, r, err, "", "Failed to update session")
		return
	}
	if err := s.repo.UpdateSession(r.Context(), session); err != nil {
		s.fail(w, r, err, "Session not found", "Failed to update session")
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Session not found", "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Injuries and suggestions ---

func (s *Server) listInjuries(w http.ResponseWriter, r *http.Request) {
	f, err := sessionFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid injury filter")
		return
	}
	f.Limit = 0
	sessions, err := s.repo.ListSessions(r.Context(), f)
	if err != nil {
		s.fail(w, r, err, "", "Failed to fetch injuries")
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.FlattenInjuries(sessions))
}

func (s *Server) listInjuryLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.repo.ListInjuryLocations(r.Context())
	if err != nil {
		s.fail(w, r, err, "", "Failed to fetch injury locations")
		return
	}
	respondWithJSON(w, http.StatusOK, locations)
}

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.repo.ListVenues(r.Context())
	if err != nil {
		s.fail(w, r, err, "", "Failed to fetch venues")
		return
	}
	respondWithJSON(w, http.StatusOK, venues)
}

// --- Analytics ---

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.assembler.Assemble(r.Context())
	if err != nil {
		s.fail(w, r, err, "", "Failed to fetch analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := analytics.Summarize(r.Context(), s.repo, s.assembler)
	if err != nil {
		s.fail(w, r, err, "", "Failed to build training summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// --- Insights ---

func (s *Server) listInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.repo.ListInsights(r.Context())
	if err != nil {
		s.fail(w, r, err, "", "Failed to fetch insights")
		return
	}
	respondWithJSON(w, http.StatusOK, insights)
}

func (s *Server) getInsight(w http.ResponseWriter, r *http.Request) {
	insight, err := s.repo.GetInsight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Insight not found", "Failed to fetch insight")
		return
	}
	respondWithJSON(w, http.StatusOK, insight)
}

func (s *Server) createInsight(w http.ResponseWriter, r *http.Request) {
	var in models.InsightInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err, "", "Failed to create insight")
		return
	}
	insight := models.NewInsight(in.Content).WithPinned(in.Pinned)
	if err := s.repo.CreateInsight(r.Context(), insight); err != nil {
		s.fail(w, r, err, "", "Failed to create insight")
		return
	}
	respondWithJSON(w, http.StatusCreated, insight)
}

func (s *Server) updateInsight(w http.ResponseWriter, r *http.Request) {
	var in models.InsightInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err, "", "Failed to update insight")
		return
	}
	insight, err := s.repo.GetInsight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Insight not found", "Failed to update insight")
		return
	}
	insight.Content = in.Content
	insight.Pinned = in.Pinned
	if err := s.repo.UpdateInsight(r.Context(), insight); err != nil {
		s.fail(w, r, err, "Insight not found", "Failed to update insight")
		return
	}
	respondWithJSON(w, http.StatusOK, insight)
}

func (s *Server) deleteInsight(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteInsight(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Insight not found", "Failed to delete insight")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
