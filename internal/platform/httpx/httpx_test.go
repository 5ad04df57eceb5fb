package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondErrorMapsClasses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Wrap(ErrNotFound, errors.New("upload x")), http.StatusNotFound},
		{Wrap(ErrConflict, errors.New("resolved twice")), http.StatusConflict},
		{Wrap(ErrValidation, errors.New("bad view")), http.StatusBadRequest},
		{Wrap(ErrUnavailable, errors.New("no summarizer")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		if rr.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		var body ProblemDetail
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if body.Status != tc.want {
			t.Fatalf("problem status %d != %d", body.Status, tc.want)
		}
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("dial tcp 10.0.0.3:5432"))
	if strings.Contains(rr.Body.String(), "10.0.0.3") {
		t.Fatalf("internal detail leaked: %s", rr.Body.String())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(ErrConflict, cause)
	if !errors.Is(err, cause) || !errors.Is(err, ErrConflict) {
		t.Fatalf("wrapped error lost its chain: %v", err)
	}
	if Wrap(ErrConflict, nil) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestDecodeJSON(t *testing.T) {
	type input struct {
		Status string `json:"status"`
	}
	var in input
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"valid"}`))
	if err := DecodeJSON(req, &in); err != nil || in.Status != "valid" {
		t.Fatalf("decode: %v %+v", err, in)
	}

	for _, body := range []string{`{"status":"valid","extra":1}`, `{"status":"valid"} {}`, `{`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSON(req, &in); err == nil {
			t.Fatalf("expected %q to be rejected", body)
		}
	}
}
