package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/dolthub/swiss"
	"github.com/rs/zerolog"

	"sea-battle/internal/app"
	"sea-battle/internal/codec"
	"sea-battle/internal/game"
	"sea-battle/internal/zk"
	"sea-battle/web"
)

const DefaultMaxMatches = 256

var (
	errNoMatch        = errors.New("no such match")
	errTooManyMatches = errors.New("too many matches in progress")
	errProofsDisabled = errors.New("strike proofs are disabled")
)

type Server struct {
	Config     app.Config
	MaxMatches int

	prover *zk.Prover // nil disables proofs
	log    zerolog.Logger

	mu      sync.RWMutex
	matches *swiss.Map[string, *entry]

	// Milliseconds since epoch when this server booted
	startAt int64
}

// entry serializes access to one match; the registry lock is never held
// while a round is played.
type entry struct {
	mu    sync.Mutex
	match *app.Match
}

func New(cfg app.Config, prover *zk.Prover, log zerolog.Logger) *Server {
	return &Server{
		Config:     cfg,
		MaxMatches: DefaultMaxMatches,
		prover:     prover,
		log:        log,
		matches:    swiss.NewMap[string, *entry](16),
		startAt:    time.Now().UnixMilli(),
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/games", s.handleCreate)
	mux.HandleFunc("GET /v1/games/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /v1/games/{id}", s.handleDelete)
	mux.HandleFunc("POST /v1/games/{id}/fire", s.handleFire)
	mux.HandleFunc("GET /v1/games/{id}/reveal", s.handleReveal)
	mux.HandleFunc("GET /v1/games/{id}/proof", s.handleProof)
	mux.HandleFunc("POST /v1/verify", s.handleVerify)
	mux.HandleFunc("GET /v1/vk", s.handleVK)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	// Serve embedded GUI at /
	mux.Handle("/", http.FileServer(web.FS()))
}

// Handler is the full middleware chain around Routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	return s.withLogging(WithCORS(mux))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", code).Msg("request failed")
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoMatch):
		return http.StatusNotFound
	case errors.Is(err, game.ErrOutOfBounds), errors.Is(err, app.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrAlreadyAttacked),
		errors.Is(err, app.ErrMatchOver),
		errors.Is(err, app.ErrMatchInProgress),
		errors.Is(err, app.ErrNotAttacked):
		return http.StatusConflict
	case errors.Is(err, errProofsDisabled), errors.Is(err, app.ErrProofUnavailable), errors.Is(err, errTooManyMatches):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// === Registry ===

func (s *Server) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.matches.Get(id)
	if !ok {
		return nil, errNoMatch
	}
	return e, nil
}

// withMatch runs fn with the match locked.
func (s *Server) withMatch(id string, fn func(m *app.Match) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.match)
}

// register adds m unless the registry is full.
func (s *Server) register(m *app.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matches.Count() >= s.MaxMatches {
		return errTooManyMatches
	}
	s.matches.Put(m.ID, &entry{match: m})
	return nil
}

func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matches.Count()
}

// === Create / Status / Delete ===

type createReq struct {
	Size          *int   `json:"size,omitempty"`
	MaxShipLength *int   `json:"maxShipLength,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	cfg := s.Config
	if req.Size != nil {
		cfg.Size = *req.Size
	}
	if req.MaxShipLength != nil {
		cfg.MaxShipLength = *req.MaxShipLength
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}

	if s.Len() >= s.MaxMatches {
		s.writeError(w, errTooManyMatches)
		return
	}
	m, err := app.NewMatch(cfg, s.log)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.register(m); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         m.ID,
		"rootHex":    m.RootHex(),
		"size":       cfg.Size,
		"fleet":      m.Fleet(),
		"totalCells": m.Fleet().TotalCells(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st codec.Status
	err := s.withMatch(r.PathValue("id"), func(m *app.Match) error {
		st = m.Status()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.matches.Delete(r.PathValue("id"))
	s.mu.Unlock()
	if !ok {
		s.writeError(w, errNoMatch)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Fire ===

type fireReq struct {
	Index *int `json:"index,omitempty"`
	Row   *int `json:"row,omitempty"`
	Col   *int `json:"col,omitempty"`
}

func (f fireReq) index(m *app.Match) (int, error) {
	if f.Index != nil {
		return *f.Index, nil
	}
	return m.Index(*f.Row, *f.Col)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	var req fireReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.Index == nil && (req.Row == nil || req.Col == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index or row and col required"})
		return
	}

	var (
		round codec.Round
		st    codec.Status
	)
	err := s.withMatch(r.PathValue("id"), func(m *app.Match) error {
		idx, err := req.index(m)
		if err != nil {
			return err
		}
		if round, err = m.Fire(idx); err != nil {
			return err
		}
		st = m.Status()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"round": round, "status": st})
}

// === Reveal / Proof / Verify ===

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var rev codec.Reveal
	err := s.withMatch(r.PathValue("id"), func(m *app.Match) error {
		var err error
		rev, err = m.Reveal()
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	if s.prover == nil {
		s.writeError(w, errProofsDisabled)
		return
	}
	idx, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index query parameter required"})
		return
	}
	var (
		payload codec.ShotProofPayload
		rootHex string
	)
	err = s.withMatch(r.PathValue("id"), func(m *app.Match) error {
		rootHex = m.RootHex()
		var err error
		payload, err = m.ProveStrike(s.prover, idx)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payload": payload, "rootHex": rootHex})
}

type verifyReq struct {
	RootHex string                 `json:"rootHex"`
	Payload codec.ShotProofPayload `json:"payload"`
	VKB64   string                 `json:"vkB64,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.RootHex) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rootHex required"})
		return
	}

	// the caller's VK wins; otherwise fall back to ours
	vk := s.verifyingKey()
	if strings.TrimSpace(req.VKB64) != "" {
		raw, err := base64.StdEncoding.DecodeString(req.VKB64)
		if err != nil || len(raw) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vkB64"})
			return
		}
		if vk, err = zk.DecodeVerifyingKey(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vkB64: " + err.Error()})
			return
		}
	}
	if vk == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vkB64 required: this server has no keys"})
		return
	}

	res, err := app.VerifyWithRoot(vk, req.RootHex, req.Payload)
	if err != nil {
		// a proof that fails the pairing check is an answer, not a bad request
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) verifyingKey() groth16.VerifyingKey {
	if s.prover == nil {
		return nil
	}
	return s.prover.VerifyingKey()
}

func (s *Server) handleVK(w http.ResponseWriter, r *http.Request) {
	if s.prover == nil {
		s.writeError(w, errProofsDisabled)
		return
	}
	raw, err := zk.EncodeVerifyingKey(s.prover.VerifyingKey())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"vkB64": base64.StdEncoding.EncodeToString(raw)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"startedAt": s.startAt,
		"matches":   s.Len(),
		"proofs":    s.prover != nil,
	})
}

// === CORS / logging ===

func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// In dev we allow any origin. For production, set this to the specific origin(s).
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}
