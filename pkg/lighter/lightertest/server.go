// Package lightertest runs an in-process fake of the Lighter REST API for
// tests.
package lightertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
)

// SentTx is a transaction received on sendTx
type SentTx struct {
	TxType int
	TxInfo string
}

// Server is a fake exchange. Fields may be changed before the first request.
type Server struct {
	Markets   []lighter.OrderBook
	Details   map[int64]lighter.OrderBookDetail
	Nonce     int64
	SendError string // non-empty makes sendTx answer code 21120 with this message

	mu    sync.Mutex
	calls map[string]int
	sent  []SentTx

	router *mux.Router
	srv    *httptest.Server
}

// NewServer starts a fake exchange and closes it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Details: make(map[int64]lighter.OrderBookDetail),
		calls:   make(map[string]int),
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	s.srv = httptest.NewServer(s.router)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orderBooks", s.handleOrderBooks).Methods("GET")
	api.HandleFunc("/orderBookDetails", s.handleOrderBookDetails).Methods("GET")
	api.HandleFunc("/nextNonce", s.handleNextNonce).Methods("GET")
	api.HandleFunc("/sendTx", s.handleSendTx).Methods("POST")
}

// URL is the base URL to hand to lighter.NewAPIClient
func (s *Server) URL() string { return s.srv.URL }

// Calls reports how many requests hit path (e.g. "/api/v1/nextNonce")
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls counts every request served
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Sent returns the transactions received so far
func (s *Server) Sent() []SentTx {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentTx(nil), s.sent...)
}

func (s *Server) count(r *http.Request) {
	s.mu.Lock()
	s.calls[r.URL.Path]++
	s.mu.Unlock()
}

func (s *Server) handleOrderBooks(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	respondJSON(w, map[string]any{"code": 200, "order_books": s.Markets})
}

func (s *Server) handleOrderBookDetails(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	id, err := strconv.ParseInt(r.URL.Query().Get("market_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, 20001, "invalid market_id")
		return
	}
	d, ok := s.Details[id]
	if !ok {
		respondError(w, http.StatusBadRequest, 21100, fmt.Sprintf("market %d not found", id))
		return
	}
	respondJSON(w, map[string]any{"code": 200, "order_book_details": []lighter.OrderBookDetail{d}})
}

func (s *Server) handleNextNonce(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	q := r.URL.Query()
	if q.Get("account_index") == "" || q.Get("api_key_index") == "" {
		respondError(w, http.StatusBadRequest, 20001, "missing account_index or api_key_index")
		return
	}
	respondJSON(w, lighter.NextNonce{Code: 200, Nonce: s.Nonce})
}

func (s *Server) handleSendTx(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, 20001, err.Error())
		return
	}
	txType, err := strconv.Atoi(r.PostForm.Get("tx_type"))
	if err != nil {
		respondError(w, http.StatusBadRequest, 20001, "invalid tx_type")
		return
	}
	info := r.PostForm.Get("tx_info")
	if !json.Valid([]byte(info)) {
		respondError(w, http.StatusBadRequest, 20001, "invalid tx_info")
		return
	}

	if s.SendError != "" {
		respondJSON(w, lighter.TxResult{Code: 21120, Message: s.SendError})
		return
	}

	s.mu.Lock()
	s.sent = append(s.sent, SentTx{TxType: txType, TxInfo: info})
	n := len(s.sent)
	s.mu.Unlock()

	respondJSON(w, lighter.TxResult{Code: 200, TxHash: fmt.Sprintf("0x%064x", n)})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}
