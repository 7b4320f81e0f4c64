package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/niceenough/internal/calendar"
	"github.com/lox/niceenough/internal/metrics"
	"github.com/lox/niceenough/internal/models"
	"github.com/lox/niceenough/internal/store"
)

// Default viewing location when nothing is stored and no query is given.
const (
	defaultLocationName = "Chicago, IL"
	defaultLatitude     = 41.8781
	defaultLongitude    = -87.6298
)

// WeatherSource provides daily historical observations for a coordinate.
type WeatherSource interface {
	FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error)
}

// LocationResolver turns a free-text query into a location, or nil on no match.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (*models.ResolvedLocation, error)
}

type Server struct {
	store       *store.Store
	weather     WeatherSource
	resolver    LocationResolver
	cache       *calendarCache
	port        string
	loc         *time.Location
	searchLimit int
	tmpl        *template.Template
}

func NewServer(store *store.Store, weather WeatherSource, resolver LocationResolver, port string, loc *time.Location, searchLimit int, cacheTTL time.Duration) *Server {
	return &Server{
		store:       store,
		weather:     weather,
		resolver:    resolver,
		cache:       newCalendarCache(cacheTTL),
		port:        port,
		loc:         loc,
		searchLimit: searchLimit,
		tmpl:        newTemplates(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/calendar", s.handleAPICalendar)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/location/resolve", s.handleLocationResolve)
	mux.HandleFunc("/api/location/last", s.handleLocationLast)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// errUpstream marks failures talking to the archive or geocoder so handlers
// can answer 502 rather than 500.
var errUpstream = errors.New("upstream unavailable")

// getCalendar returns classified month buckets for a coordinate, fetching the
// full history window from the archive on a cache miss.
func (s *Server) getCalendar(ctx context.Context, lat, lon float64) (map[string]calendar.MonthBucket, error) {
	today := time.Now().In(s.loc)
	start, end := calendar.CurrentRange(today)

	key := cacheKey(lat, lon, end)
	if buckets, ok := s.cache.Get(key); ok {
		metrics.CalendarCacheHits.WithLabelValues("hit").Inc()
		return buckets, nil
	}
	metrics.CalendarCacheHits.WithLabelValues("miss").Inc()

	days, err := s.weather.FetchDaily(ctx, lat, lon, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUpstream, err)
	}

	rated := calendar.ClassifyDays(days)
	for _, d := range rated {
		metrics.DaysClassified.WithLabelValues(string(d.Rating)).Inc()
	}

	buckets := calendar.GroupByMonth(rated)
	s.cache.Set(key, buckets)
	return buckets, nil
}

// parseCoords reads lat/lon query params and rejects out-of-range values.
func parseCoords(r *http.Request) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat")
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lon")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range")
	}
	return lat, lon, nil
}

// currentLocation picks the location for the index page: a fresh search if
// the query string has one, otherwise the stored selection, otherwise the
// default. Search failures fall through to the stored location so the page
// still renders.
func (s *Server) currentLocation(ctx context.Context, query string) (name string, lat, lon float64) {
	if query != "" {
		if loc, err := s.resolveAndSave(ctx, query); err != nil {
			log.Printf("api: resolve %q: %v", query, err)
		} else if loc != nil {
			return loc.FormattedAddress, loc.Latitude, loc.Longitude
		}
	}

	stored, err := s.store.LastLocation()
	if err != nil {
		log.Printf("api: load last location: %v", err)
	}
	if stored != nil {
		return stored.FormattedAddress, stored.Latitude, stored.Longitude
	}

	return defaultLocationName, defaultLatitude, defaultLongitude
}

// errQuotaExceeded is returned when the day's search allowance is spent.
var errQuotaExceeded = errors.New("daily search limit reached")

// resolveAndSave consumes quota, resolves the query, and persists any match.
func (s *Server) resolveAndSave(ctx context.Context, query string) (*models.ResolvedLocation, error) {
	used, allowed, err := s.store.ConsumeSearch(s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("check search quota: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w (%d used)", errQuotaExceeded, used)
	}

	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUpstream, err)
	}
	if loc == nil {
		return nil, nil
	}

	if err := s.store.SaveLocation(*loc); err != nil {
		log.Printf("api: save location: %v", err)
	}
	return loc, nil
}

// searchQuery reads the location search from the URL: a free-text q param, or
// the older city/state pair, joined for the geocoder.
func searchQuery(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		return q
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		return ""
	}
	if state := strings.TrimSpace(r.URL.Query().Get("state")); state != "" {
		return city + ", " + state
	}
	return city
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	name, lat, lon := s.currentLocation(r.Context(), searchQuery(r))

	buckets, err := s.getCalendar(r.Context(), lat, lon)
	if err != nil {
		log.Printf("api: calendar for %s: %v", name, err)
		http.Error(w, "weather data unavailable", http.StatusBadGateway)
		return
	}

	page := buildCalendarPage(name, buckets, time.Now().In(s.loc))
	if err := s.tmpl.ExecuteTemplate(w, "index.html", page); err != nil {
		log.Printf("api: render index: %v", err)
	}
}

// CalendarResponse is the JSON shape of /api/calendar.
type CalendarResponse struct {
	Start  string                         `json:"start"`
	End    string                         `json:"end"`
	Months []calendar.MonthStats          `json:"months"`
	Days   map[string][]calendar.RatedDay `json:"days"`
}

func (s *Server) handleAPICalendar(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buckets, err := s.getCalendar(r.Context(), lat, lon)
	if err != nil {
		log.Printf("api: calendar: %v", err)
		http.Error(w, "weather data unavailable", http.StatusBadGateway)
		return
	}

	start, end := calendar.CurrentRange(time.Now().In(s.loc))
	resp := CalendarResponse{
		Start: calendar.FormatDate(start),
		End:   calendar.FormatDate(end),
		Days:  make(map[string][]calendar.RatedDay, len(buckets)),
	}
	for _, key := range calendar.SortedMonthKeys(buckets, false) {
		bucket := buckets[key]
		resp.Months = append(resp.Months, calendar.MonthSummary(key, bucket))
		resp.Days[key] = bucket.Days
	}

	writeJSON(w, http.StatusOK, resp)
}

// SummaryResponse is the JSON shape of /api/summary.
type SummaryResponse struct {
	Years []calendar.YearSummary `json:"years"`
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buckets, err := s.getCalendar(r.Context(), lat, lon)
	if err != nil {
		log.Printf("api: summary: %v", err)
		http.Error(w, "weather data unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{Years: calendar.Summarize(buckets)})
}

func (s *Server) handleLocationResolve(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	loc, err := s.resolveAndSave(r.Context(), query)
	if err != nil {
		if errors.Is(err, errQuotaExceeded) {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		log.Printf("api: resolve %q: %v", query, err)
		http.Error(w, "location search unavailable", http.StatusBadGateway)
		return
	}
	if loc == nil {
		http.Error(w, "no matching location", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleLocationLast(w http.ResponseWriter, r *http.Request) {
	loc, err := s.store.LastLocation()
	if err != nil {
		log.Printf("api: last location: %v", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	if loc == nil {
		http.Error(w, "no stored location", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// HealthStatus reports storage reachability and today's search quota usage.
type HealthStatus struct {
	Status        string `json:"status"`
	SearchesUsed  int    `json:"searches_used"`
	SearchesLimit int    `json:"searches_limit"`
	Error         string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok", SearchesLimit: s.searchLimit}

	if err := s.store.Ping(); err != nil {
		health.Status = "error"
		health.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	used, err := s.store.SearchesUsed()
	if err != nil {
		health.Status = "degraded"
		health.Error = err.Error()
		writeJSON(w, http.StatusOK, health)
		return
	}
	health.SearchesUsed = used

	writeJSON(w, http.StatusOK, health)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}
