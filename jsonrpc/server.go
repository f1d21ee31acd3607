package jsonrpc

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/holiman/uint256"

	"pohchain/block"
	lederrors "pohchain/errors"
	"pohchain/ledger"
	"pohchain/pipeline"
	"pohchain/ratelimit"
	"pohchain/types"
)

// Envelope is the uniform response wrapper for every method.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(data interface{}) *Envelope {
	return &Envelope{Success: true, Data: data}
}

func fail(err error) *Envelope {
	return &Envelope{Success: false, Error: err.Error()}
}

// --- Params/Results ---

type submitParams struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Timestamp uint64 `json:"timestamp"`
	Signature string `json:"signature"`
}

type getBlockParams struct {
	Hash string `json:"hash"`
}

type txView struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Timestamp uint64 `json:"timestamp"`
	Signature string `json:"signature"`
}

type blockView struct {
	Hash         string   `json:"hash"`
	PrevHash     string   `json:"previous_hash"`
	Timestamp    int64    `json:"timestamp"`
	Transactions []txView `json:"transactions"`
	PohHash      string   `json:"poh_hash"`
	PohCount     uint64   `json:"poh_count"`
}

type verifyResult struct {
	Valid bool   `json:"valid"`
	Index int    `json:"index,omitempty"`
	Error string `json:"error,omitempty"`
}

func toTxView(tx *types.Transaction) txView {
	return txView{
		ID:        tx.ID,
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.AmountString(),
		Timestamp: tx.Timestamp,
		Signature: tx.Signature,
	}
}

func toBlockView(b *block.Block) blockView {
	txs := make([]txView, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		txs = append(txs, toTxView(tx))
	}
	return blockView{
		Hash:         b.Hash,
		PrevHash:     b.PrevHash,
		Timestamp:    b.Timestamp,
		Transactions: txs,
		PohHash:      b.PohHash,
		PohCount:     b.PohCount,
	}
}

// --- Server ---

type Server struct {
	addr       string
	pipe       *pipeline.Pipeline
	ld         *ledger.Ledger
	corsConfig CORSConfig
	limiter    *ratelimit.Limiter
	httpServer *http.Server
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func NewServer(addr string, pipe *pipeline.Pipeline, ld *ledger.Ledger) *Server {
	return &Server{
		addr:    addr,
		pipe:    pipe,
		ld:      ld,
		limiter: ratelimit.NewLimiter(nil),
	}
}

// SetCORSConfig allows configuring CORS settings
func (s *Server) SetCORSConfig(config CORSConfig) {
	s.corsConfig = config
}

func (s *Server) Start() {
	methods := s.buildMethodMap()
	jh := jhttp.NewBridge(methods, &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if !s.limiter.Allow(clientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		jh.ServeHTTP(w, r)
	})

	mux := http.NewServeMux()
	mux.Handle("/", h)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	go s.httpServer.ListenAndServe()
}

// Stop shuts the HTTP listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.limiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) buildMethodMap() handler.Map {
	return handler.Map{
		"ledger.submit": handler.New(func(ctx context.Context, p submitParams) (*Envelope, error) {
			return s.rpcSubmit(p), nil
		}),
		"ledger.mine": handler.New(func(ctx context.Context) (*Envelope, error) {
			return s.rpcMine(), nil
		}),
		"ledger.latest": handler.New(func(ctx context.Context) (*Envelope, error) {
			return ok(toBlockView(s.ld.Latest())), nil
		}),
		"ledger.getblock": handler.New(func(ctx context.Context, p getBlockParams) (*Envelope, error) {
			b, found := s.ld.GetBlock(p.Hash)
			if !found {
				return &Envelope{Success: false, Error: "block not found"}, nil
			}
			return ok(toBlockView(b)), nil
		}),
		"ledger.verify": handler.New(func(ctx context.Context) (*Envelope, error) {
			return s.rpcVerify(), nil
		}),
		"ledger.pending": handler.New(func(ctx context.Context) (*Envelope, error) {
			pending := s.ld.Pending()
			views := make([]txView, 0, len(pending))
			for _, tx := range pending {
				views = append(views, toTxView(tx))
			}
			return ok(map[string]interface{}{
				"total_count": len(views),
				"pending_txs": views,
			}), nil
		}),
	}
}

// --- Implementations ---

func (s *Server) rpcSubmit(p submitParams) *Envelope {
	amount, err := uint256.FromDecimal(p.Amount)
	if err != nil {
		return fail(lederrors.NewValidation(lederrors.ErrCodeInvalidAmount, lederrors.ErrMsgInvalidAmount))
	}

	tx := &types.Transaction{
		ID:        p.ID,
		Sender:    p.Sender,
		Recipient: p.Recipient,
		Amount:    amount,
		Timestamp: p.Timestamp,
		Signature: p.Signature,
	}

	// Reject-immediately backpressure: the rpc caller gets the signal
	// instead of a stalled request.
	if err := s.pipe.TrySubmit(tx); err != nil {
		return fail(err)
	}
	return ok(map[string]string{"tx_id": tx.ID, "status": "submitted"})
}

func (s *Server) rpcMine() *Envelope {
	b, err := s.ld.Mine()
	if err != nil {
		return fail(err)
	}
	return ok(toBlockView(b))
}

func (s *Server) rpcVerify() *Envelope {
	err := s.ld.Verify()
	if err == nil {
		return ok(verifyResult{Valid: true})
	}

	var ce *lederrors.CorruptionError
	if stderrors.As(err, &ce) {
		return ok(verifyResult{Valid: false, Index: ce.Index, Error: err.Error()})
	}
	return fail(err)
}

// --- Helpers ---

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsConfig.AllowedOrigins) > 0 {
		if s.corsConfig.AllowedOrigins[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			origin := r.Header.Get("Origin")
			for _, allowedOrigin := range s.corsConfig.AllowedOrigins {
				if origin == allowedOrigin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
	}

	if len(s.corsConfig.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.corsConfig.AllowedMethods, ", "))
	}
	if len(s.corsConfig.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.corsConfig.AllowedHeaders, ", "))
	}
	if s.corsConfig.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.corsConfig.MaxAge))
	}
}

// --- Env helpers ---

// CORSFromEnv reads environment variables and constructs a CORSConfig.
// Returns (cfg, true) if any CORS-related env var is set; otherwise
// (zero, false).
//
// Env vars:
// - CORS_ALLOWED_ORIGINS: comma-separated list
// - CORS_ALLOWED_METHODS: comma-separated list
// - CORS_ALLOWED_HEADERS: comma-separated list
// - CORS_MAX_AGE: integer seconds
func CORSFromEnv() (CORSConfig, bool) {
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	methods := os.Getenv("CORS_ALLOWED_METHODS")
	headers := os.Getenv("CORS_ALLOWED_HEADERS")
	maxAgeStr := os.Getenv("CORS_MAX_AGE")

	var maxAge int
	if maxAgeStr != "" {
		if v, err := strconv.Atoi(maxAgeStr); err == nil {
			maxAge = v
		}
	}

	var allowedOrigins, allowedMethods, allowedHeaders []string
	if origins != "" {
		allowedOrigins = splitAndTrim(origins)
	}
	if methods != "" {
		allowedMethods = splitAndTrim(methods)
	}
	if headers != "" {
		allowedHeaders = splitAndTrim(headers)
	}

	provided := len(allowedOrigins) > 0 || len(allowedMethods) > 0 || len(allowedHeaders) > 0 || maxAge > 0
	if !provided {
		return CORSConfig{}, false
	}

	return CORSConfig{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: allowedMethods,
		AllowedHeaders: allowedHeaders,
		MaxAge:         maxAge,
	}, true
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
