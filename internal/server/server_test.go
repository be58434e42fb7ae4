package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phishscan/phishscan/internal/classifier"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/history"
	"github.com/phishscan/phishscan/internal/model"
	"github.com/phishscan/phishscan/internal/predict"
)

// newTestServer builds a Server with trained artifacts, offline extractors,
// and an optional history store.
func newTestServer(t *testing.T, withStore bool) (*Server, *history.Store) {
	t.Helper()

	dir := t.TempDir()
	names := feature.CanonicalNames()
	weights := make([]float64, len(names))
	weights[0] = 0.01
	lr := &classifier.LogisticRegression{Weights: weights, Bias: -1}
	if err := classifier.SaveArtifacts(dir, lr, names, nil); err != nil {
		t.Fatal(err)
	}

	loader := classifier.NewLoader(dir, classifier.WithExpectedNames(names))
	assembler := feature.NewAssembler(
		feature.WithDomainExtractor(feature.NewDomainExtractor(
			feature.DefaultWhoisTimeout, feature.DefaultDNSTimeout,
			feature.WithRegistrationLookup(feature.UnavailableLookup{}),
			feature.WithAddressLookup(feature.UnavailableLookup{}),
		)),
	)
	predictor := predict.New(loader, predict.WithAssembler(assembler))

	var store *history.Store
	opts := []Option{}
	if withStore {
		var err error
		store, err = history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = store.Close() })
		opts = append(opts, WithHistoryStore(store))
	}

	return New(predictor, opts...), store
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %s, want ok status", w.Body.String())
	}
}

func TestServer_PredictGET(t *testing.T) {
	t.Parallel()

	t.Run("classifies a URL", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/predict?url=https://example.com/login", nil)

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var result model.PredictionResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("response is not a prediction result: %v", err)
		}
		if result.Failed() {
			t.Fatalf("prediction failed: %s", result.Error)
		}
		if result.Classification == "" {
			t.Error("Classification is empty")
		}
	})

	t.Run("missing url parameter is a 400", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/predict", nil)

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unscannable URL returns an error result, not a 500", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/predict?url=ftp://example.com", nil)

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 with error result", w.Code)
		}
		var result model.PredictionResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if !result.Failed() {
			t.Error("expected a failed prediction for a non-http scheme")
		}
	})
}

func TestServer_PredictPOST(t *testing.T) {
	t.Parallel()

	t.Run("classifies the body URL", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"url":"https://example.com"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", body)
		req.Header.Set("Content-Type", "application/json")

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
	})

	t.Run("body without url is a 400", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestServer_History(t *testing.T) {
	t.Parallel()

	t.Run("without a store the endpoint is absent", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("lists persisted predictions", func(t *testing.T) {
		t.Parallel()
		srv, store := newTestServer(t, true)

		saved := model.PredictionResult{
			URL:            "https://seen-before.test",
			Classification: model.LabelLegitimate,
			RiskScore:      1.5,
			ScannedAt:      time.Now(),
		}
		if _, err := store.SavePrediction(context.Background(), &saved); err != nil {
			t.Fatal(err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil)
		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Predictions []model.PredictionResult `json:"predictions"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Predictions) != 1 || resp.Predictions[0].URL != saved.URL {
			t.Errorf("predictions = %+v, want the saved record", resp.Predictions)
		}
	})

	t.Run("invalid limit is a 400", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=potato", nil)

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("predictions are persisted through the predict endpoint", func(t *testing.T) {
		t.Parallel()
		srv, store := newTestServer(t, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/predict?url=https://example.com", nil)
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		records, err := store.ListRecent(context.Background(), 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Errorf("len(records) = %d, want the prediction persisted", len(records))
		}
	})
}
