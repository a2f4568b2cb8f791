package webapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/rs/zerolog"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/config"
)

const maxRequestBodySize = 1 << 20

type AnalyzeRequest struct {
	Text    string `json:"text"`
	Spacing bool   `json:"spacing"`
	Model   string `json:"model"`
}

type AnalyzeResponse struct {
	Model     string           `json:"model"`
	Tokens    []analyzer.Token `json:"tokens"`
	PlainText string           `json:"plainText"`
}

type DiffRequest struct {
	Text      string `json:"text"`
	SrcModel  string `json:"srcModel"`
	DestModel string `json:"destModel"`
}

type DiffResponse struct {
	Src     string   `json:"src"`
	Dest    string   `json:"dest"`
	Changed bool     `json:"changed"`
	Ops     []DiffOp `json:"ops"`
}

// Actions - HTTP handlers over the loaded models.
type Actions struct {
	models *Models
	cache  Cache
}

// NewActions creates the handlers. cache may be nil.
func NewActions(models *Models, cache Cache) *Actions {
	return &Actions{models: models, cache: cache}
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func (a *Actions) analyzerFor(name string) (*analyzer.Komoran, string, error) {
	if name == "" {
		name = config.DefaultModelName
	}
	k, ok := a.models.Get(name)
	if !ok {
		return nil, name, fmt.Errorf("unknown model %s", name)
	}
	return k, name, nil
}

// analyze runs one analysis, going through the cache when there is one.
func (a *Actions) analyze(r *http.Request, k *analyzer.Komoran, modelName string, text string, spacing bool) (AnalyzeResponse, error) {
	logger := zerolog.Ctx(r.Context())
	var key string
	if a.cache != nil {
		key = CacheKey(modelName, spacing, text)
		cached, ok, err := a.cache.Get(r.Context(), key)
		if err != nil {
			logger.Warn().Err(err).Msg("cache lookup failed")
		}
		if ok {
			var resp AnalyzeResponse
			if err := sonic.UnmarshalString(cached, &resp); err == nil {
				return resp, nil
			}
			logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		}
	}

	var res analyzer.Result
	if spacing {
		res = k.AnalyzeWithSpacing(text)
	} else {
		var err error
		if res, err = k.Analyze(text); err != nil {
			return AnalyzeResponse{}, err
		}
	}
	resp := AnalyzeResponse{Model: modelName, Tokens: res.Tokens, PlainText: res.PlainText()}

	if a.cache != nil {
		if data, err := sonic.MarshalString(resp); err == nil {
			if err := a.cache.Set(r.Context(), key, data); err != nil {
				logger.Warn().Err(err).Msg("cache store failed")
			}
		}
	}
	return resp, nil
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, analyzer.ErrEmptyToken) {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusBadRequest)
		return
	}
	uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusInternalServerError)
}

// Analyze - POST /analyze
func (a *Actions) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusBadRequest)
		return
	}
	k, name, err := a.analyzerFor(req.Model)
	if err != nil {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusNotFound)
		return
	}
	resp, err := a.analyze(r, k, name, req.Text, req.Spacing)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	uniresp.WriteJSONResponse(w, resp)
}

// Diff - POST /diff compares the analyses of one text by two models.
func (a *Actions) Diff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeBody(r, &req); err != nil {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusBadRequest)
		return
	}
	src, srcName, err := a.analyzerFor(req.SrcModel)
	if err != nil {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusNotFound)
		return
	}
	dest, destName, err := a.analyzerFor(req.DestModel)
	if err != nil {
		uniresp.WriteJSONErrorResponse(w, uniresp.NewActionErrorFrom(err), http.StatusNotFound)
		return
	}
	srcResp, err := a.analyze(r, src, srcName, req.Text, false)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	destResp, err := a.analyze(r, dest, destName, req.Text, false)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	ops := DiffAnalyses(srcResp.PlainText, destResp.PlainText)
	uniresp.WriteJSONResponse(w, DiffResponse{
		Src:     srcResp.PlainText,
		Dest:    destResp.PlainText,
		Changed: Changed(ops),
		Ops:     ops,
	})
}

// Models - GET /models
func (a *Actions) Models(w http.ResponseWriter, r *http.Request) {
	uniresp.WriteJSONResponse(w, map[string]any{"models": a.models.Names()})
}

// Health - GET /health
func (a *Actions) Health(w http.ResponseWriter, r *http.Request) {
	uniresp.WriteJSONResponse(w, map[string]any{"ok": true})
}
