package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/expression-calculator/internal/calculator"
	"github.com/karupanerura/expression-calculator/internal/expression"
)

const basePath = "/v1/evaluations"

var basePathRegexp = regexp.MustCompile(`^/v1/evaluations(?:$|/|:)`)

const (
	succeededState = "SUCCEEDED"
	failedState    = "FAILED"
)

type evaluation struct {
	seq uint64

	Name       string                       `json:"name"`
	Expression string                       `json:"expression"`
	State      string                       `json:"state"`
	AST        expression.Node              `json:"ast,omitempty"`
	ASTText    string                       `json:"astText,omitempty"`
	Value      *float64                     `json:"value,omitempty"`
	ValueText  string                       `json:"valueText,omitempty"`
	Error      *calculator.ErrorDescription `json:"error,omitempty"`
	CreateTime time.Time                    `json:"createTime"`
}

type evaluateRequest struct {
	Expression *string `json:"expression"`
}

type batchEvaluateRequest struct {
	Expressions []string `json:"expressions"`
}

type Options struct {
	Concurrency  int
	HistoryLimit int
}

type httpHandler struct {
	opts        Options
	idBase      uint64
	evaluations sync.Map
	count       int64
}

func NewHTTPHandler(opts Options) http.Handler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = calculator.DefaultConcurrency
	}
	return &httpHandler{opts: opts}
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !basePathRegexp.MatchString(r.URL.Path) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if r.URL.Path == basePath {
		switch r.Method {
		case http.MethodGet:
			h.listEvaluations(w, r)
			return

		case http.MethodPost:
			h.createEvaluation(w, r)
			return

		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
	}

	rest := strings.TrimPrefix(r.URL.Path, basePath)
	if strings.HasPrefix(rest, ":") {
		switch customMethod := rest[1:]; customMethod {
		case "batchEvaluate":
			if r.Method == http.MethodPost {
				h.batchEvaluate(w, r)
				return
			}
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return

		default:
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
	}

	evaluationID := strings.TrimPrefix(rest, "/")
	if evaluationID == "" || strings.ContainsRune(evaluationID, '/') {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getEvaluation(w, r, evaluationID)
		return

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
}

func (h *httpHandler) createEvaluation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.Expression == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ret, err := calculator.EvaluateExpression(*req.Expression)
	ev := h.record(*req.Expression, ret, err)
	if err := resJSON(w, http.StatusOK, ev); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) batchEvaluate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req batchEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	outcomes := calculator.EvaluateBatch(r.Context(), req.Expressions, h.opts.Concurrency)
	results := make([]*evaluation, len(outcomes))
	for i, outcome := range outcomes {
		if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
			log.Printf("batch evaluation aborted: %v", outcome.Err)
			return
		}
		results[i] = h.record(req.Expressions[i], outcome.Result, outcome.Err)
	}

	if err := resJSON(w, http.StatusOK, map[string][]*evaluation{"evaluations": results}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) record(text string, ret *calculator.Result, err error) *evaluation {
	seq := atomic.AddUint64(&h.idBase, 1)
	id := fmt.Sprintf("%016x", seq)
	ev := &evaluation{
		seq:        seq,
		Name:       basePath + "/" + id,
		Expression: text,
		CreateTime: time.Now().UTC(),
	}

	if err != nil {
		ev.State = failedState
		ev.Error = calculator.DescribeError(err)
	} else {
		ev.State = succeededState
		ev.AST = ret.AST
		ev.ASTText = ret.ASTRepresentation
		ev.ValueText = strconv.FormatFloat(ret.Value, 'g', -1, 64)
		if !math.IsInf(ret.Value, 0) && !math.IsNaN(ret.Value) {
			v := ret.Value
			ev.Value = &v
		}
	}

	h.evaluations.Store(id, ev)
	if limit := h.opts.HistoryLimit; limit > 0 && atomic.AddInt64(&h.count, 1) > int64(limit) {
		h.evictOldest(seq - uint64(limit))
	}
	return ev
}

// evictOldest removes every evaluation whose sequence is not after seq.
func (h *httpHandler) evictOldest(seq uint64) {
	h.evaluations.Range(func(key, value any) bool {
		if value.(*evaluation).seq <= seq {
			if _, loaded := h.evaluations.LoadAndDelete(key); loaded {
				atomic.AddInt64(&h.count, -1)
			}
		}
		return true
	})
}

func (h *httpHandler) listEvaluations(w http.ResponseWriter, r *http.Request) {
	results := []*evaluation{}
	h.evaluations.Range(func(key, value any) bool {
		results = append(results, value.(*evaluation))
		return true
	})
	sort.Slice(results, func(i, j int) bool {
		return results[i].seq < results[j].seq
	})

	if err := resJSON(w, http.StatusOK, map[string][]*evaluation{"evaluations": results}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) getEvaluation(w http.ResponseWriter, r *http.Request, id string) {
	ret, ok := h.evaluations.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if err := resJSON(w, http.StatusOK, ret.(*evaluation)); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
