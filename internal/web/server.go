package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/manager"
	"github.com/brensch/campcheck/internal/providers"
)

type Server struct {
	mgr         *manager.Manager
	addr        string
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

func NewServer(mgr *manager.Manager, addr, frontendURL string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		mgr:         mgr,
		addr:        addr,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(newSlogLogger(s.logger))
	r.Use(newCORSHandler(s.frontendURL))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/cities", s.handleCities)
		r.Get("/campgrounds/{cityID}", s.handleCampgrounds)
		r.Get("/venues", s.handleVenues)
		r.Post("/availability", s.handleAvailability)
		r.Post("/trip-plan", s.handleTripPlan)
		r.Post("/trip-plan/availability", s.handleTripPlanAvailability)
	})
	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", slog.Any("err", err))
		}
	}()

	s.logger.Info("starting web server", slog.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"timestamp":     s.timestamp(),
		"cachedQueries": s.mgr.CachedQueries(),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Cities())
}

func (s *Server) handleCampgrounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Campgrounds(chi.URLParam(r, "cityID")))
}

type venue struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Adapter    string            `json:"adapter"`
	Classes    []providers.Class `json:"classes"`
	BookingURL string            `json:"bookingUrl"`
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	reg := s.mgr.Registry()
	out := make([]venue, 0, len(reg.IDs()))
	for _, id := range reg.IDs() {
		p, _ := reg.Get(id)
		v := venue{ID: id, Name: id, Adapter: p.Name(), Classes: p.Classes(), BookingURL: p.BookingURL()}
		if cg, _, ok := catalog.CampgroundByID(id); ok {
			v.Name = cg.Name
		}
		if v.Classes == nil {
			v.Classes = []providers.Class{}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

type availabilityRequest struct {
	CampgroundID string   `json:"campgroundId"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	NumAdults    *flexInt `json:"numAdults"`
	NumKids      *flexInt `json:"numKids"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.CampgroundID == "" || req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	q, err := providers.ParseQuery(req.StartDate, req.EndDate, req.NumAdults.or(2), req.NumKids.or(0))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.mgr.Check(r.Context(), req.CampgroundID, q)
	var pe *providers.PanicError
	switch {
	case err == nil:
	case errors.Is(err, providers.ErrUnknownCampground):
		writeError(w, http.StatusNotFound, "Unknown campground: "+req.CampgroundID)
		return
	case errors.As(err, &pe):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"available": false,
			"price":     nil,
			"message":   "Error checking availability",
			"timestamp": s.timestamp(),
		})
		return
	default:
		s.logger.Error("availability check failed", slog.String("campground", req.CampgroundID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error checking availability")
		return
	}

	body, err := withTimestamp(c.Outcome, s.timestamp())
	if err != nil {
		s.logger.Error("failed to encode availability", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// withTimestamp adds a timestamp key next to the flat result fields, or next
// to the class keys of a multi-class answer.
func withTimestamp(out providers.Outcome, ts string) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["timestamp"], _ = json.Marshal(ts)
	return m, nil
}

type tripPlanRequest struct {
	DestinationID string   `json:"destinationId"`
	Nights        *flexInt `json:"nights"`
	StartDate     string   `json:"startDate"`
	NumAdults     *flexInt `json:"numAdults"`
	NumKids       *flexInt `json:"numKids"`
}

// parseTripPlan writes the error response itself and reports false on failure.
func (s *Server) parseTripPlan(w http.ResponseWriter, r *http.Request) (tripPlanRequest, catalog.TripPlan, bool) {
	var req tripPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var fe *flexIntError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, "Invalid nights value: "+fe.raw)
			return req, catalog.TripPlan{}, false
		}
		writeError(w, http.StatusBadRequest, "No data provided")
		return req, catalog.TripPlan{}, false
	}
	if req.DestinationID == "" || req.Nights == nil || int(*req.Nights) == 0 || req.StartDate == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return req, catalog.TripPlan{}, false
	}
	start, err := providers.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, catalog.TripPlan{}, false
	}
	plan, err := catalog.Expand(req.DestinationID, int(*req.Nights), start, req.StartDate)
	switch {
	case err == nil:
		return req, plan, true
	case errors.Is(err, catalog.ErrUnknownDestination):
		writeError(w, http.StatusNotFound, "No itinerary found for destination: "+req.DestinationID)
	case errors.Is(err, catalog.ErrUnknownLength):
		writeError(w, http.StatusNotFound, "No itinerary found for "+req.DestinationID+" with "+strconv.Itoa(int(*req.Nights))+" nights")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
	return req, catalog.TripPlan{}, false
}

func (s *Server) handleTripPlan(w http.ResponseWriter, r *http.Request) {
	_, plan, ok := s.parseTripPlan(w, r)
	if !ok {
		return
	}
	plan.Timestamp = s.timestamp()
	writeJSON(w, http.StatusOK, plan)
}

type tripPlanAvailability struct {
	DestinationID string                     `json:"destinationId"`
	TotalNights   int                        `json:"totalNights"`
	StartDate     string                     `json:"startDate"`
	Stops         []manager.StopAvailability `json:"stops"`
	Timestamp     string                     `json:"timestamp"`
}

func (s *Server) handleTripPlanAvailability(w http.ResponseWriter, r *http.Request) {
	req, plan, ok := s.parseTripPlan(w, r)
	if !ok {
		return
	}
	stops, err := s.mgr.PlanAvailability(r.Context(), plan, req.NumAdults.or(2), req.NumKids.or(0))
	if err != nil {
		s.logger.Warn("trip plan availability failed", slog.String("destination", plan.DestinationID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error checking availability")
		return
	}
	writeJSON(w, http.StatusOK, tripPlanAvailability{
		DestinationID: plan.DestinationID,
		TotalNights:   plan.TotalNights,
		StartDate:     plan.StartDate,
		Stops:         stops,
		Timestamp:     s.timestamp(),
	})
}

// flexInt accepts 3, 3.0 and "3".
type flexInt int

type flexIntError struct{ raw string }

func (e *flexIntError) Error() string { return "not an integer: " + e.raw }

func (f *flexInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil && n == float64(int(n)) {
		*f = flexInt(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			*f = flexInt(v)
			return nil
		}
		raw = str
	}
	return &flexIntError{raw: raw}
}

func (f *flexInt) or(def int) int {
	if f == nil {
		return def
	}
	return int(*f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
