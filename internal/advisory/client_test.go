package advisory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/advice", func(w http.ResponseWriter, r *http.Request) {
		var req adviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"advice": "listen more: " + req.Transcript})
	})

	mux.HandleFunc("/api/satisfaction-score", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]float64{"score": 7})
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "topic,sentiment\npricing,neutral\n")
	})

	mux.HandleFunc("/api/upload-pdf", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "PDF processed and indexed"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Advice(t *testing.T) {
	srv := newAPIServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	advice, err := client.Advice(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Advice failed: %v", err)
	}
	if advice != "listen more: hello" {
		t.Errorf("Unexpected advice: %q", advice)
	}
}

func TestClient_AdviceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.Advice(context.Background(), "hello"); err == nil {
		t.Fatal("Expected error for 500 response")
	}
}

func TestClient_SatisfactionScore(t *testing.T) {
	srv := newAPIServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	score, err := client.SatisfactionScore(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SatisfactionScore failed: %v", err)
	}
	if score != 7 {
		t.Errorf("Expected score 7, got %f", score)
	}
}

func TestClient_Summary(t *testing.T) {
	srv := newAPIServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	csv, err := client.Summary(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if string(csv) != "topic,sentiment\npricing,neutral\n" {
		t.Errorf("Unexpected CSV payload: %q", string(csv))
	}
}

func TestClient_UploadPDF(t *testing.T) {
	srv := newAPIServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	status, err := client.UploadPDF(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadPDF failed: %v", err)
	}
	if status != "PDF processed and indexed" {
		t.Errorf("Unexpected status: %q", status)
	}
}
