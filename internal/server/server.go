// Package server exposes template generation and coloring progress over
// HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/maax3v3/colorbynumber"
	"github.com/maax3v3/colorbynumber/internal/sample"
)

// Config holds the server settings. Generation defaults apply to requests
// that leave a parameter out.
type Config struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MaxTemplates   int    `yaml:"max_templates"`

	Colors        int    `yaml:"colors"`
	MinRegionSize int    `yaml:"min_region_size"`
	MaxSide       int    `yaml:"max_side"` // also the cap on a request's max_side; 0 means no cap
	EdgeStyle     string `yaml:"edge_style"`

	// Page colors as #rgb or #rrggbb; empty keeps the default.
	Background string `yaml:"background"`
	EdgeColor  string `yaml:"edge_color"`
	InkColor   string `yaml:"ink_color"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	opts := colorbynumber.DefaultOptions()
	return Config{
		Addr:           ":8080",
		MaxUploadBytes: 20 << 20,
		MaxTemplates:   100,
		Colors:         opts.Colors,
		MinRegionSize:  opts.MinRegionSize,
		MaxSide:        opts.MaxSide,
		EdgeStyle:      opts.EdgeStyle,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := cfg.options(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) options() (colorbynumber.Options, error) {
	opts := colorbynumber.DefaultOptions()
	opts.Colors = c.Colors
	opts.MinRegionSize = c.MinRegionSize
	opts.MaxSide = c.MaxSide
	opts.EdgeStyle = c.EdgeStyle
	err := setColors(&opts, map[string]string{
		"background": c.Background,
		"edge_color": c.EdgeColor,
		"ink_color":  c.InkColor,
	})
	return opts, err
}

// setColors parses the non-empty hex values into the matching page colors.
func setColors(opts *colorbynumber.Options, values map[string]string) error {
	dst := map[string]*colorbynumber.Color{
		"background": &opts.Background,
		"edge_color": &opts.EdgeColor,
		"ink_color":  &opts.InkColor,
	}
	for name, hex := range values {
		if hex == "" {
			continue
		}
		c, err := colorbynumber.ParseHexColor(hex)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst[name] = c
	}
	return nil
}

var (
	errNotFound    = errors.New("not found")
	errBadRequest  = errors.New("bad request")
	errStoreIsFull = errors.New("template limit reached")
)

// Server keeps generated templates in memory.
type Server struct {
	cfg Config
	log *slog.Logger

	mu        sync.RWMutex
	templates map[string]*colorbynumber.Template
	nextID    int
}

// New returns a server with an empty template store.
func New(cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		log:       log,
		templates: make(map[string]*colorbynumber.Template),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/template.png", s.handleImage(func(t *colorbynumber.Template, r *http.Request) image.Image {
				return t.TemplateImage(r.URL.Query().Get("legend") != "false")
			}))
			r.Get("/colored.png", s.handleImage(func(t *colorbynumber.Template, _ *http.Request) image.Image {
				return t.ColoredImage()
			}))
			r.Get("/progress.png", s.handleImage(func(t *colorbynumber.Template, _ *http.Request) image.Image {
				return t.ProgressImage()
			}))
			r.Get("/template.svg", s.handleSVG)
			r.Get("/regions/at", s.handleRegionAt)
			r.Post("/fill", s.handleFill)
			r.Post("/clear", s.handleClear)
			r.Get("/progress", s.handleProgress)
			r.Get("/hint", s.handleHint)
		})
	})
	return r
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) lookup(r *http.Request) (*colorbynumber.Template, error) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %q", errNotFound, id)
	}
	return t, nil
}

// full reports whether the store has reached MaxTemplates.
func (s *Server) full() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.MaxTemplates > 0 && len(s.templates) >= s.cfg.MaxTemplates
}

func (s *Server) store(t *colorbynumber.Template) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxTemplates > 0 && len(s.templates) >= s.cfg.MaxTemplates {
		return "", errStoreIsFull
	}
	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.templates[id] = t
	return id, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	// Checked again by store, since generation runs unlocked.
	if s.full() {
		s.writeError(w, r, errStoreIsFull)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.log

	img, err := s.requestImage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := colorbynumber.Generate(img, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store(t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("template created", "id", id, "regions", len(t.Regions()), "width", t.Width(), "height", t.Height())
	writeJSON(w, http.StatusCreated, summarize(id, t, false))
}

func (s *Server) requestImage(r *http.Request) (image.Image, error) {
	if r.FormValue("sample") == "true" {
		return sample.Scene(640, 480), nil
	}
	f, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", errBadRequest, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", errBadRequest, err)
	}
	return img, nil
}

func (s *Server) parseOptions(r *http.Request) (colorbynumber.Options, error) {
	opts, err := s.cfg.options()
	if err != nil {
		return opts, err
	}
	ints := map[string]*int{
		"colors":          &opts.Colors,
		"min_region_size": &opts.MinRegionSize,
		"max_side":        &opts.MaxSide,
	}
	for name, dst := range ints {
		if v := r.FormValue(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"exact_colors":     &opts.ExactColors,
		"fill_micro_holes": &opts.FillMicroHoles,
	}
	for name, dst := range bools {
		if v := r.FormValue(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
			}
			*dst = b
		}
	}
	if v := r.FormValue("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: seed: %v", errBadRequest, err)
		}
		opts.Seed = n
	}
	if v := r.FormValue("edge_style"); v != "" {
		opts.EdgeStyle = v
	}
	if err := setColors(&opts, map[string]string{
		"background": r.FormValue("background"),
		"edge_color": r.FormValue("edge_color"),
		"ink_color":  r.FormValue("ink_color"),
	}); err != nil {
		return opts, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if opts.MaxSide < 0 {
		return opts, fmt.Errorf("%w: max_side must be >= 0", errBadRequest)
	}
	if limit := s.cfg.MaxSide; limit > 0 && (opts.MaxSide == 0 || opts.MaxSide > limit) {
		opts.MaxSide = limit
	}
	return opts, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(chi.URLParam(r, "id"), t, true))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.templates[id]
	delete(s.templates, id)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: template %q", errNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImage(render func(*colorbynumber.Template, *http.Request) image.Image) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.lookup(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, render(t, r)); err != nil {
			s.log.Error("encoding png", "error", err, "path", r.URL.Path)
		}
	}
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := t.WriteSVG(w); err != nil {
		s.log.Error("writing svg", "error", err, "path", r.URL.Path)
	}
}

func (s *Server) handleRegionAt(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		s.writeError(w, r, fmt.Errorf("%w: x and y must be integers", errBadRequest))
		return
	}
	id := t.RegionAt(x, y)
	if id < 0 {
		s.writeError(w, r, fmt.Errorf("%w: no region at (%d, %d)", errNotFound, x, y))
		return
	}
	reg, _ := t.Region(id)
	writeJSON(w, http.StatusOK, regionJSON(reg))
}

type fillRequest struct {
	RegionID int `json:"region_id"`
	ColorNum int `json:"color_num"`
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req fillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := t.Fill(req.RegionID, req.ColorNum); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressOf(t))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t.Clear()
	writeJSON(w, http.StatusOK, progressOf(t))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressOf(t))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seed := uint64(time.Now().UnixNano())
	if v := r.URL.Query().Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: seed: %v", errBadRequest, err))
			return
		}
	}
	id, ok := t.Hint(seed)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: every region is filled", errNotFound))
		return
	}
	reg, _ := t.Region(id)
	writeJSON(w, http.StatusOK, regionJSON(reg))
}

// status maps an error to its HTTP status.
func status(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, colorbynumber.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound), errors.Is(err, colorbynumber.ErrUnknownRegion):
		return http.StatusNotFound
	case errors.Is(err, colorbynumber.ErrWrongColor), errors.Is(err, colorbynumber.ErrAlreadyColored),
		errors.Is(err, colorbynumber.ErrUnresolved), errors.Is(err, colorbynumber.ErrDiverged):
		return http.StatusConflict
	case errors.Is(err, colorbynumber.ErrNoRegions), errors.Is(err, colorbynumber.ErrEmptyImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errStoreIsFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code >= 500 {
		s.log.Error("request failed", "error", err, "path", r.URL.Path)
	} else {
		s.log.Debug("request rejected", "error", err, "status", code, "path", r.URL.Path)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
