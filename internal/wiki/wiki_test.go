package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/testutil"
)

func summaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Magna Carta":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"title": "Magna Carta", "extract": "A charter of rights from 1215.", "content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Magna_Carta"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testWiki(t *testing.T, providers ...llm.Provider) *Service {
	t.Helper()
	srv := summaryServer(t)
	s := NewService(llm.NewRegistry(providers...))
	s.baseURL = srv.URL + "/"
	return s
}

func TestGet_GeminiFirst(t *testing.T) {
	gemini := testutil.NewFakeProvider(llm.ProviderGemini, "An overview from Gemini.")
	anthropic := testutil.NewFakeProvider(llm.ProviderAnthropic, "An overview from Anthropic.")
	s := testWiki(t, gemini, anthropic)

	ov, err := s.Get(context.Background(), "Magna Carta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.Title != "Magna Carta" || ov.Extract == "" {
		t.Errorf("summary = %+v", ov)
	}
	if ov.Overview != "An overview from Gemini." || ov.Provider != llm.ProviderGemini {
		t.Errorf("overview = %q via %q", ov.Overview, ov.Provider)
	}
	if anthropic.Calls() != 0 {
		t.Error("fallback provider called although Gemini succeeded")
	}
}

func TestGet_FallsBackToAnthropic(t *testing.T) {
	gemini := testutil.NewFakeProvider(llm.ProviderGemini, "")
	gemini.Err = apperr.ErrProvider
	anthropic := testutil.NewFakeProvider(llm.ProviderAnthropic, "An overview from Anthropic.")
	s := testWiki(t, gemini, anthropic)

	ov, err := s.Get(context.Background(), "Magna Carta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.Provider != llm.ProviderAnthropic {
		t.Errorf("provider = %q, want anthropic", ov.Provider)
	}
}

func TestGet_AllProvidersFailCarriesFirstError(t *testing.T) {
	gemini := testutil.NewFakeProvider(llm.ProviderGemini, "")
	gemini.Err = apperr.ErrBlocked
	anthropic := testutil.NewFakeProvider(llm.ProviderAnthropic, "")
	anthropic.Err = apperr.ErrProvider
	s := testWiki(t, gemini, anthropic)

	_, err := s.Get(context.Background(), "Magna Carta")
	if !errors.Is(err, apperr.ErrBlocked) {
		t.Errorf("err = %v, want first error (ErrBlocked)", err)
	}
}

func TestGet_UnknownArticle(t *testing.T) {
	s := testWiki(t, testutil.NewFakeProvider(llm.ProviderGemini, "overview"))
	_, err := s.Get(context.Background(), "No Such Page Anywhere")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_EmptyTitle(t *testing.T) {
	s := testWiki(t)
	if _, err := s.Get(context.Background(), "  "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
