// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

// Package ctlapi exposes a debug HTTP API over a running rule engine:
// the compiled rule table, recent committed action events, and a
// streaming websocket feed of new events as they commit.
package ctlapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-rulectl/internal/eval"
	"github.com/probechain/go-rulectl/internal/rlog"
	"github.com/probechain/go-rulectl/internal/rules"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the debug HTTP API: GET /rules, GET /rules/:id, GET
// /actions/recent, and the websocket feed GET /actions/stream.
type Server struct {
	mu          sync.RWMutex
	rules       []rules.Rule
	etag        string
	recent      []eval.ActionEvent
	recentLimit int

	hub     *hub
	handler http.Handler
	log     rlog.Logger
}

// NewServer builds a Server over an initial rule table. Call SetRules
// whenever the table is recompiled, and PublishEvents after every
// driver Step to update /actions/recent and the stream.
func NewServer(rs []rules.Rule, log rlog.Logger) *Server {
	if log == nil {
		log = rlog.New("module", "ctlapi")
	}
	s := &Server{recentLimit: 200, hub: newHub(log), log: log}
	s.SetRules(rs)

	router := httprouter.New()
	router.GET("/healthz", s.handleHealthz)
	router.GET("/rules", s.handleListRules)
	router.GET("/rules/:id", s.handleGetRule)
	router.GET("/actions/recent", s.handleRecentActions)
	router.GET("/actions/stream", s.handleStream)

	s.handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)

	return s
}

// ServeHTTP lets Server itself be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// SetRules replaces the rule table the API serves and recomputes its
// ETag, which changes whenever the compiled rule set changes.
func (s *Server) SetRules(rs []rules.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rs
	s.etag = ruleSetETag(rs)
}

// PublishEvents records a step's committed action events and fans them
// out to stream subscribers.
func (s *Server) PublishEvents(events []eval.ActionEvent) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	s.recent = append(s.recent, events...)
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[len(s.recent)-s.recentLimit:]
	}
	s.mu.Unlock()

	payload, err := json.Marshal(events)
	if err != nil {
		s.log.Warn("failed to marshal action events for stream", "err", err)
		return
	}
	s.hub.broadcast(payload)
}

// ruleSetETag hashes the rule table's identity (id, priority, and
// premise/action counts) so clients can cheaply detect a recompile.
func ruleSetETag(rs []rules.Rule) string {
	h := sha3.New256()
	for _, r := range rs {
		json.NewEncoder(h).Encode(struct {
			ID       string
			Priority float64
			Premises int
			Then     int
			Else     int
		}{r.ID, r.Priority, len(r.Premises), len(r.ThenActions), len(r.ElseActions)})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ruleSummary struct {
	ID          string  `json:"id"`
	Priority    float64 `json:"priority"`
	PremiseLen  int     `json:"premiseCount"`
	ThenLen     int     `json:"thenCount"`
	ElseLen     int     `json:"elseCount"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w.Header().Set("ETag", s.etag)
	summaries := make([]ruleSummary, len(s.rules))
	for i, rule := range s.rules {
		summaries[i] = ruleSummary{rule.ID, rule.Priority, len(rule.Premises), len(rule.ThenActions), len(rule.ElseActions)}
	}
	writeJSON(w, summaries)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rule := range s.rules {
		if rule.ID == id {
			writeJSON(w, rule)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) handleRecentActions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, s.recent)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ch := s.hub.register(conn)
	defer s.hub.unregister(conn)

	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
