package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/encode"
	"github.com/formlens/formlens/internal/geometry"
)

func classifyInput() *encode.Input {
	return &encode.Input{
		Tokens: []encode.Token{
			{Text: "name", ID: 1, WordIndex: 0, Box: geometry.NewBox(100, 200, 200, 230)},
			{Text: "john", ID: 3, WordIndex: 1, Box: geometry.NewBox(210, 200, 280, 230)},
		},
		Width:  1000,
		Height: 1000,
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	var gotReq classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models/layoutlmv3-funsd-v1/classify" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]any{
				{"label_id": 3, "scores": []float64{0.01, 0.01, 0.01, 0.9, 0.03, 0.02, 0.02}},
				{"label_id": 5, "scores": []float64{0.01, 0.01, 0.01, 0.02, 0.03, 0.9, 0.02}},
			},
		})
	}))
	defer srv.Close()

	e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "layoutlmv3-funsd-v1"}, nil)

	preds, err := e.Classify(context.Background(), classifyInput())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("predictions = %d, want 2", len(preds))
	}
	if preds[0].LabelID != 3 || preds[1].LabelID != 5 {
		t.Errorf("label ids = %d, %d", preds[0].LabelID, preds[1].LabelID)
	}
	if preds[0].Scores[3] != 0.9 {
		t.Errorf("score = %f, want 0.9", preds[0].Scores[3])
	}

	if gotReq.Model != "layoutlmv3-funsd-v1" {
		t.Errorf("request model = %s", gotReq.Model)
	}
	if len(gotReq.TokenIDs) != 2 || gotReq.TokenIDs[0] != 1 {
		t.Errorf("request token ids = %v", gotReq.TokenIDs)
	}
	wantBox := []int{100, 200, 200, 230}
	for i, v := range wantBox {
		if gotReq.Boxes[0][i] != v {
			t.Errorf("request box = %v, want %v", gotReq.Boxes[0], wantBox)
			break
		}
	}
}

func TestClassifyRejectsSchemaDrift(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing predictions", `{"results": []}`},
		{"label_id as string", `{"predictions": [{"label_id": "3", "scores": [0.9]}]}`},
		{"negative label_id", `{"predictions": [{"label_id": -1, "scores": [0.9]}]}`},
		{"score above one", `{"predictions": [{"label_id": 0, "scores": [1.5]}]}`},
		{"empty scores", `{"predictions": [{"label_id": 0, "scores": []}]}`},
		{"not json", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "m"}, nil)
			_, err := e.Classify(context.Background(), classifyInput())
			if !errors.Is(err, common.ErrInference) {
				t.Errorf("err = %v, want ErrInference", err)
			}
		})
	}
}

func TestClassifyServerRefusesUnloadedModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "m"}, nil)
	_, err := e.Classify(context.Background(), classifyInput())
	if !errors.Is(err, common.ErrModelNotLoaded) {
		t.Errorf("err = %v, want ErrModelNotLoaded", err)
	}
}

func TestClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "m"}, nil)
	_, err := e.Classify(context.Background(), classifyInput())
	if !errors.Is(err, common.ErrInference) {
		t.Errorf("err = %v, want ErrInference", err)
	}
	if common.Fatal(err) {
		t.Error("a transient server error must not be fatal")
	}
}

func TestClassifyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "m"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Classify(ctx, classifyInput())
	if !errors.Is(err, common.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestLoadHitsLoadEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(HTTPConfig{BaseURL: srv.URL, Model: "m"}, nil)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != "/v1/models/m/load" {
		t.Errorf("path = %s", gotPath)
	}
}
