package venue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type decoded struct {
	Price float64 `json:"price"`
}

func TestGetJSONDecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 50000}`))
	}))
	defer srv.Close()

	var out decoded
	if err := GetJSON(context.Background(), DefaultHTTPClient(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Price != 50000 {
		t.Errorf("Price = %v, want 50000", out.Price)
	}
}

func TestGetJSONMapsTooManyRequestsToErrRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out decoded
	err := GetJSON(context.Background(), DefaultHTTPClient(), srv.URL, &out)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestGetJSONMapsServerErrorToErrNetworkTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out decoded
	err := GetJSON(context.Background(), DefaultHTTPClient(), srv.URL, &out)
	if !errors.Is(err, ErrNetworkTransient) {
		t.Errorf("err = %v, want ErrNetworkTransient", err)
	}
}

func TestGetJSONMapsOtherNonOKStatusToErrDecodeSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out decoded
	err := GetJSON(context.Background(), DefaultHTTPClient(), srv.URL, &out)
	if !errors.Is(err, ErrDecodeSchema) {
		t.Errorf("err = %v, want ErrDecodeSchema", err)
	}
}

func TestGetJSONMapsMalformedBodyToErrDecodeSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out decoded
	err := GetJSON(context.Background(), DefaultHTTPClient(), srv.URL, &out)
	if !errors.Is(err, ErrDecodeSchema) {
		t.Errorf("err = %v, want ErrDecodeSchema", err)
	}
}

func TestGetJSONMapsUnreachableHostToErrNetworkTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var out decoded
	err := GetJSON(context.Background(), DefaultHTTPClient(), url, &out)
	if !errors.Is(err, ErrNetworkTransient) {
		t.Errorf("err = %v, want ErrNetworkTransient", err)
	}
}
