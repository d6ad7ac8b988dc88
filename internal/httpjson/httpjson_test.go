package httpjson

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteCodedError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteCodedError(rr, http.StatusBadRequest, "invalid_params", "missing videoId")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: want %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content-type: got %q", ct)
	}
	want := `{"error":"missing videoId","code":"invalid_params"}` + "\n"
	if rr.Body.String() != want {
		t.Fatalf("body: want %q, got %q", want, rr.Body.String())
	}
}

func TestWrite_DoesNotEscapeHTML(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, http.StatusOK, map[string]string{"id": "a&b <c>.mp4"})
	if want := `{"id":"a&b <c>.mp4"}` + "\n"; rr.Body.String() != want {
		t.Fatalf("body: want %q, got %q", want, rr.Body.String())
	}
}
