// internal/httpserver/routes_game.go
//
// Solo game endpoints. Sessions are ephemeral and in memory; the server
// validates and scores each guess itself (unlike rooms, where clients submit
// their own scored state).

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/game"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Post("/game/guess", s.handleSoloGuess)
}

type newGameReq struct {
	Answer string `json:"answer"` // optional fixed answer (testing)
}
type newGameRes struct {
	GameID string `json:"gameId"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	g := game.New(req.Answer)
	if err := s.solo.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save solo game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: g.ID})
}

type soloGuessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}
type soloGuessRes struct {
	Marks []game.Verdict `json:"marks"`
	State game.Status    `json:"state"` // "playing" | "won" | "lost"
}

func (s *Server) handleSoloGuess(w http.ResponseWriter, r *http.Request) {
	var req soloGuessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	g, err := s.solo.Get(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	marks, state, err := g.ApplyGuess(req.Guess)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if err := s.solo.Save(r.Context(), g); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(soloGuessRes{Marks: marks, State: state})
}
