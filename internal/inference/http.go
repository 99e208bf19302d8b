package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/encode"
)

// HTTPConfig holds model-server connection settings.
type HTTPConfig struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

// HTTPEngine talks to an external model server that hosts the
// token-classification model. The server owns hardware placement and
// batching; this client only ships tensors and validates what comes back.
type HTTPEngine struct {
	cfg    HTTPConfig
	logger *slog.Logger
}

func NewHTTPEngine(cfg HTTPConfig, logger *slog.Logger) *HTTPEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPEngine{cfg: cfg, logger: logger}
}

func (e *HTTPEngine) ModelVersion() string {
	return e.cfg.Model
}

// Load asks the server to bring the model weights up. Used by ModelHandle
// as the warm-up step.
func (e *HTTPEngine) Load(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s/load", e.cfg.BaseURL, e.cfg.Model)
	_, status, err := e.sendJSON(ctx, url, struct{}{})
	if err != nil {
		return fmt.Errorf("load model (status %d): %w", status, err)
	}
	return nil
}

type classifyRequest struct {
	Model    string  `json:"model"`
	TokenIDs []int   `json:"token_ids"`
	Boxes    [][]int `json:"boxes"` // [x1,y1,x2,y2] in layout space, one per token
}

type classifyResponse struct {
	Predictions []struct {
		LabelID int       `json:"label_id"`
		Scores  []float64 `json:"scores"`
	} `json:"predictions"`
}

// Classify ships the encoded token stream to the server and returns the
// per-token label distributions, index-aligned with the input tokens.
func (e *HTTPEngine) Classify(ctx context.Context, in *encode.Input) ([]Prediction, error) {
	req := classifyRequest{
		Model:    e.cfg.Model,
		TokenIDs: make([]int, len(in.Tokens)),
		Boxes:    make([][]int, len(in.Tokens)),
	}
	for i, tok := range in.Tokens {
		req.TokenIDs[i] = tok.ID
		req.Boxes[i] = []int{tok.Box.X1, tok.Box.Y1, tok.Box.X2, tok.Box.Y2}
	}

	url := fmt.Sprintf("%s/v1/models/%s/classify", e.cfg.BaseURL, e.cfg.Model)
	raw, status, err := e.sendJSON(ctx, url, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: classify: %v", common.ErrTimeout, err)
	case status == http.StatusConflict:
		// The server signals an unloaded model with 409.
		return nil, fmt.Errorf("%w: server refused classify", common.ErrModelNotLoaded)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrInference, err)
	}

	if err := validateClassifyResponse(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInference, err)
	}
	var resp classifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", common.ErrInference, err)
	}

	preds := make([]Prediction, len(resp.Predictions))
	for i, p := range resp.Predictions {
		preds[i] = Prediction{LabelID: p.LabelID, Scores: p.Scores}
	}
	return preds, nil
}

// sendJSON posts a JSON body and returns the raw response body and status.
func (e *HTTPEngine) sendJSON(ctx context.Context, url string, body any) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.Debug("model.http.request", "req_id", reqID, "url", url, "content_length", len(bs))

	resp, err := e.cfg.Client.Do(req)
	if err != nil {
		e.logger.Error("model.http.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.logger.Warn("model.http.body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	e.logger.Debug("model.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
