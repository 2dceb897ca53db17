package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

func TestGetSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/series/sess_1/1.2.3" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(dto.SeriesResponse{
			SeriesUID:  "1.2.3",
			FrameCount: 2,
			Frames:     []dto.Frame{{Index: 0}, {Index: 1}},
		})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp, err := c.GetSeries(context.Background(), "sess_1", "1.2.3")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if resp.SeriesUID != "1.2.3" || len(resp.Frames) != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/series/sess_1/1.2.3/frame/4" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(dto.FrameResponse{FrameIndex: 4, TotalFrames: 10})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp, err := c.GetFrame(context.Background(), "sess_1", "1.2.3", 4)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if resp.FrameIndex != 4 || resp.TotalFrames != 10 {
		t.Errorf("response = %+v", resp)
	}
}

func TestLoadSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dto.SeriesResponse{Frames: []dto.Frame{{Index: 0}, {Index: 1}, {Index: 2}}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	frames, err := c.LoadSeries(context.Background(), "sess_1", "1.2.3")
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if len(frames) != 3 {
		t.Errorf("frames = %d, want 3", len(frames))
	}
}

func TestServerErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.GetSeries(context.Background(), "s", "u")

	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("got %v, want ServerError", err)
	}
	if srvErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", srvErr.Status)
	}
	if !strings.Contains(srvErr.Message, "boom") {
		t.Errorf("message = %q", srvErr.Message)
	}
}

func TestTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.GetSeries(context.Background(), "s", "u")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestNoResponseClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.GetSeries(context.Background(), "s", "u")
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("got %v, want ErrNoResponse", err)
	}
}

func TestUpload_ProgressReachesFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if len(r.MultipartForm.File["files"]) != 1 {
			t.Errorf("files = %v", r.MultipartForm.File)
		}
		json.NewEncoder(w).Encode(dto.UploadResponse{SessionID: "sess_1", TotalSeries: 1})
	}))
	defer srv.Close()

	var mu sync.Mutex
	var last int
	c := New(Config{BaseURL: srv.URL})
	resp, err := c.Upload(context.Background(), []UploadFile{
		{Name: "study.zip", Data: make([]byte, 64<<10)},
	}, func(pct int) {
		mu.Lock()
		last = pct
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.SessionID != "sess_1" {
		t.Errorf("response = %+v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout", ErrTimeout, "Upload timed out. Large studies can take several minutes; please try again."},
		{"no response", ErrNoResponse, "Could not reach the server. Check that the backend is running."},
		{"server error", &ServerError{Status: 503}, "Server error (503). Please try again."},
		{"generic", errors.New("odd failure"), "Something went wrong: odd failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
