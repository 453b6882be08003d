package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[
			{"exercise":{"id":"remote-one","title":"Remote One","difficulty":"beginner","type":"practice",
				"instructions":"Do it.","files":[{"name":"main.cql","language":"cql"}],
				"validation":{"strategy":"pattern-match","passing_score":70,
					"patterns":[{"pattern":"define","required":true,"points":100}]}}},
			{"legacy":{"name":"Remote Legacy","content":"Old content."}}
		]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource("remote", srv.URL, nil)
	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Exercise == nil || records[0].Exercise.ID != "remote-one" {
		t.Errorf("first record should be the structured exercise, got %+v", records[0])
	}
	if records[1].Legacy == nil || records[1].Legacy.Name != "Remote Legacy" {
		t.Errorf("second record should be the legacy record, got %+v", records[1])
	}
}

func TestHTTPSource_Fetch_ServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource("remote", srv.URL, nil)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("5xx response should surface an error")
	}
	if calls < 2 {
		t.Errorf("failed fetch should be retried, saw %d calls", calls)
	}
}

func TestHTTPSource_Fetch_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	src := NewHTTPSource("remote", srv.URL, nil)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("unparseable body should surface an error")
	}
}
