package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPageTitleFallbackPrefersOGTitle(t *testing.T) {
	html := []byte(`<html><head>
<meta property="og:title" content="  og title  ">
<title>plain title</title>
</head><body></body></html>`)
	if got := pageTitle(html); got != "og title" {
		t.Fatalf("pageTitle = %q, want %q", got, "og title")
	}

	html = []byte(`<html><head><title> plain title </title></head><body></body></html>`)
	if got := pageTitle(html); got != "plain title" {
		t.Fatalf("pageTitle = %q, want %q", got, "plain title")
	}

	if got := pageTitle([]byte(`<html><head></head><body></body></html>`)); got != "" {
		t.Fatalf("pageTitle = %q, want empty", got)
	}
}

func TestExtractRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewReadabilityExtractor()
	if _, err := e.Extract(context.Background(), srv.URL+"/article"); err == nil {
		t.Fatalf("expected error on HTTP 403")
	}
}
