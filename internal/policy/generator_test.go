package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"datenwacht.org/internal/auth"
)

func TestStaticGeneratorWithoutActivities(t *testing.T) {
	out, err := StaticGenerator{}.GeneratePolicy(context.Background(), auth.Organization{Name: "Beta AG"}, "", nil)
	if err != nil {
		t.Fatalf("GeneratePolicy: %v", err)
	}
	for _, want := range []string{"Datenschutzerklärung", "Beta AG", "DSGVO", "Ihre Rechte"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in policy text", want)
		}
	}
}

func TestStaticGeneratorIncludesDetails(t *testing.T) {
	out, err := StaticGenerator{}.GeneratePolicy(context.Background(), auth.Organization{Name: "Beta AG"},
		"Online-Shop mit Sitz in Berlin, ca. 40 Mitarbeitende.", nil)
	if err != nil {
		t.Fatalf("GeneratePolicy: %v", err)
	}
	if !strings.Contains(out, "Online-Shop mit Sitz in Berlin") {
		t.Fatalf("expected organization details in policy text:\n%s", out)
	}
}

func TestStaticGeneratorDeduplicatesLegalBases(t *testing.T) {
	activities := []auth.ProcessingActivity{
		{Name: "Newsletter", LegalBasis: "Art. 6 Abs. 1 lit. a DSGVO"},
		{Name: "Support", LegalBasis: "Art. 6 Abs. 1 lit. a DSGVO"},
	}
	out, err := StaticGenerator{}.GeneratePolicy(context.Background(), auth.Organization{Name: "Beta AG"}, "", activities)
	if err != nil {
		t.Fatalf("GeneratePolicy: %v", err)
	}
	if strings.Count(out, "Art. 6 Abs. 1 lit. a DSGVO") != 1 {
		t.Fatalf("expected legal basis listed once:\n%s", out)
	}
}

func TestNewGeneratorSelection(t *testing.T) {
	if _, err := NewGenerator("static", "", ""); err != nil {
		t.Fatalf("static generator: %v", err)
	}
	if _, err := NewGenerator("", "", ""); err != nil {
		t.Fatalf("default generator: %v", err)
	}
	if _, err := NewGenerator("anthropic", "model", ""); err == nil {
		t.Fatal("expected error without API key")
	}
	if _, err := NewGenerator("anthropic", "model", "key"); err != nil {
		t.Fatalf("anthropic generator: %v", err)
	}
	if _, err := NewGenerator("oracle", "", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestAnthropicGeneratorParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "Gamma GmbH") {
			t.Errorf("prompt missing organization: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "Cloud-Dienstleister") {
			t.Errorf("prompt missing organization details: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "# Datenschutzerklärung\n\nGamma GmbH"}},
		})
	}))
	defer srv.Close()

	orig := anthropicAPIURL
	anthropicAPIURL = srv.URL
	defer func() { anthropicAPIURL = orig }()

	gen := &anthropicGenerator{apiKey: "test-key", model: "test-model"}
	out, err := gen.GeneratePolicy(context.Background(), auth.Organization{Name: "Gamma GmbH"}, "Cloud-Dienstleister", nil)
	if err != nil {
		t.Fatalf("GeneratePolicy: %v", err)
	}
	if !strings.Contains(out, "Gamma GmbH") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestAnthropicGeneratorSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "overloaded"},
		})
	}))
	defer srv.Close()

	orig := anthropicAPIURL
	anthropicAPIURL = srv.URL
	defer func() { anthropicAPIURL = orig }()

	gen := &anthropicGenerator{apiKey: "test-key", model: "test-model"}
	if _, err := gen.GeneratePolicy(context.Background(), auth.Organization{Name: "Gamma GmbH"}, "", nil); err == nil {
		t.Fatal("expected error from non-200 response")
	}
}
