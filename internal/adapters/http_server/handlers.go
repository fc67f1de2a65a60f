// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
)

const maxBodyBytes = 64 << 10

type Handlers struct {
	Dir    *app.DirectoryService
	Cycles *app.ReconcileService
	Hub    http.Handler // websocket endpoint; optional
}

type problem struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Errors []fieldError `json:"errors,omitempty"`
}

// ---- request bodies ----

type reviewRequest struct {
	Name    string           `json:"name" validate:"max=100"`
	Stars   domain.RawRating `json:"stars" validate:"notblank,rating"`
	Comment string           `json:"comment" validate:"max=2000"`
}

type restaurantRequest struct {
	Name        string  `json:"name" validate:"notblank,max=200"`
	Address     string  `json:"address" validate:"notblank,max=300"`
	Lat         float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64 `json:"lng" validate:"gte=-180,lte=180"`
	CustomImage string  `json:"customImage" validate:"max=2048"`
}

type latLng struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (p *latLng) coords() domain.Coords { return domain.Coords{Lat: *p.Lat, Lng: *p.Lng} }

type boundsRequest struct {
	SW *latLng `json:"sw" validate:"required"`
	NE *latLng `json:"ne" validate:"required"`
}

type cycleRequest struct {
	Bounds *boundsRequest `json:"bounds" validate:"required"`
	Center *latLng        `json:"center" validate:"omitempty"`
}

// ---- routes ----

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(s.opts.Timeout))

		r.Get("/v1/restaurants", h.listRestaurants)
		r.Get("/v1/restaurants/{id}", h.getRestaurant)
		r.Get("/v1/restaurants/{id}/image", h.getImage)
		r.Get("/v1/search", h.search)

		r.Group(func(r chi.Router) {
			r.Use(s.submitLimit())
			r.Post("/v1/restaurants", h.addRestaurant)
			r.Post("/v1/restaurants/{id}/reviews", h.addReview)
			if h.Cycles != nil {
				r.Post("/v1/cycles", h.runCycle)
			}
		})
	})

	// no timeout wrapper: the connection is long-lived and needs Hijack
	if h.Hub != nil {
		s.mux.Get("/v1/ws", h.Hub.ServeHTTP)
	}
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemFields(w, status, title, detail, nil)
}

func writeProblemFields(w http.ResponseWriter, status int, title, detail string, fields []fieldError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Errors: fields}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with a weak ETag, answering 304 when the client has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the problem response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Body too large", err.Error())
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	fields, err := validateStruct(dst)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Validation error", err.Error())
		return false
	}
	if len(fields) > 0 {
		writeProblemFields(w, http.StatusUnprocessableEntity, "Invalid input", "request failed validation", fields)
		return false
	}
	return true
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// ---- handlers ----

func (h *Handlers) listRestaurants(w http.ResponseWriter, r *http.Request) {
	from, err := intParam(r, "from", 0)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid from", "from must be an integer")
		return
	}
	to, err := intParam(r, "to", 5)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid to", "to must be an integer")
		return
	}
	if from > to {
		writeProblem(w, http.StatusBadRequest, "Invalid range", "from must not exceed to")
		return
	}
	writeCached(w, r, h.Dir.Filter(from, to))
}

func (h *Handlers) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Dir.Find(chi.URLParam(r, "id"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
		return
	}
	writeCached(w, r, rec)
}

func (h *Handlers) getImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.Dir.Image(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
		return
	}
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Image lookup failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Missing query", "q is required")
		return
	}
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid center", "lat and lng must be numbers")
		return
	}
	out, err := h.Dir.Search(r.Context(), domain.Coords{Lat: lat, Lng: lng}, q)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Search failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) addRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rec := h.Dir.AddRestaurant(r.Context(), domain.RestaurantInput{
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		Lat:         req.Lat,
		Lng:         req.Lng,
		CustomImage: strings.TrimSpace(req.CustomImage),
	})
	w.Header().Set("Location", "/v1/restaurants/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Dir.Find(id); !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
		return
	}
	var req reviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rec, ok := h.Dir.AddReview(r.Context(), id, domain.ReviewInput{Name: req.Name, Stars: req.Stars, Comment: req.Comment})
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) runCycle(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bounds := domain.Bounds{SW: req.Bounds.SW.coords(), NE: req.Bounds.NE.coords()}
	if bounds.SW.Lat > bounds.NE.Lat {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid bounds", "sw must be south of ne")
		return
	}
	var center *domain.Coords
	if req.Center != nil {
		c := req.Center.coords()
		center = &c
	}
	writeJSON(w, http.StatusOK, h.Cycles.Load(r.Context(), bounds, center))
}
