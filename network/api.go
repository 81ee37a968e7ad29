package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"battlecar/game"
	"battlecar/room"
	"battlecar/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.ListRooms())
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.rooms.Get(chi.URLParam(r, "code"))
	if errors.Is(err, room.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rm.Info())
}

func (s *Server) createRoom(w http.ResponseWriter, _ *http.Request) {
	code := s.rooms.CreateRoom()
	s.log.Info().Str("room", code).Str("event", "room.created").Msg("room created")
	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history_disabled", "match history is not configured")
		return
	}
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	matches, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list matches")
		writeError(w, http.StatusInternalServerError, "internal", "could not load matches")
		return
	}
	if matches == nil {
		matches = []store.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history_disabled", "match history is not configured")
		return
	}
	st, err := s.history.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("match stats")
		writeError(w, http.StatusInternalServerError, "internal", "could not load stats")
		return
	}
	if st == nil {
		st = []store.Stat{}
	}
	writeJSON(w, http.StatusOK, st)
}

type simulateRequest struct {
	Mode     string `json:"mode"`
	Seed     uint64 `json:"seed"`
	MaxTicks int    `json:"maxTicks"`
}

type simulateResponse struct {
	Mode       string `json:"mode"`
	Winner     string `json:"winner"`
	Seed       uint64 `json:"seed"`
	Ticks      int    `json:"ticks"`
	DurationMs int64  `json:"durationMs"`
}

// simulate runs one headless autopilot match and reports the result.
func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "body must be JSON")
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_mode", err.Error())
		return
	}
	m, err := game.Setup(game.Options{Mode: mode, Seed: req.Seed, MaxTicks: clampSimTicks(req.MaxTicks)})
	if err != nil {
		writeError(w, http.StatusBadRequest, "setup_failed", err.Error())
		return
	}
	res, err := game.Play(r.Context(), m, game.NewAutopilot(m))
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{
		Mode:       string(res.Mode),
		Winner:     string(res.Winner),
		Seed:       res.Seed,
		Ticks:      res.Ticks,
		DurationMs: res.Duration.Milliseconds(),
	})
}
