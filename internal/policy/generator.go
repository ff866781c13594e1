// Package policy generates and stores privacy-policy documents for an
// organization based on its directory profile and processing activities.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datenwacht.org/internal/auth"
)

// TextGenerator produces the policy document body. details is free text the
// caller supplies about the organization and flows into the document.
type TextGenerator interface {
	GeneratePolicy(ctx context.Context, org auth.Organization, details string, activities []auth.ProcessingActivity) (string, error)
}

// NewGenerator returns a generator for the configured provider. An empty or
// "static" provider yields the built-in template generator.
func NewGenerator(provider, model, apiKey string) (TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "static":
		return StaticGenerator{}, nil
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic generator requires an API key")
		}
		return &anthropicGenerator{apiKey: apiKey, model: model}, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", provider)
	}
}

// StaticGenerator renders a German policy template without calling out. It is
// the default when no AI provider is configured.
type StaticGenerator struct{}

func (StaticGenerator) GeneratePolicy(ctx context.Context, org auth.Organization, details string, activities []auth.ProcessingActivity) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Datenschutzerklärung\n\n")
	fmt.Fprintf(&b, "## 1. Verantwortlicher\n\nVerantwortlicher für die Datenverarbeitung ist %s.\n\n", org.Name)
	if details = strings.TrimSpace(details); details != "" {
		fmt.Fprintf(&b, "%s\n\n", details)
	}
	b.WriteString("## 2. Zwecke der Verarbeitung\n\nWir verarbeiten personenbezogene Daten zu folgenden Zwecken:\n\n")
	if len(activities) == 0 {
		b.WriteString("- Bereitstellung und Verbesserung unserer Dienstleistungen\n")
	}
	for _, act := range activities {
		if act.Purpose != "" {
			fmt.Fprintf(&b, "- %s: %s\n", act.Name, act.Purpose)
		} else {
			fmt.Fprintf(&b, "- %s\n", act.Name)
		}
	}
	b.WriteString("\n## 3. Rechtsgrundlagen\n\nDie Verarbeitung erfolgt auf Grundlage von Art. 6 Abs. 1 DSGVO")
	var bases []string
	seen := map[string]struct{}{}
	for _, act := range activities {
		if act.LegalBasis == "" {
			continue
		}
		if _, ok := seen[act.LegalBasis]; ok {
			continue
		}
		seen[act.LegalBasis] = struct{}{}
		bases = append(bases, act.LegalBasis)
	}
	if len(bases) > 0 {
		fmt.Fprintf(&b, ", insbesondere: %s", strings.Join(bases, ", "))
	}
	b.WriteString(".\n\n")
	b.WriteString("## 4. Ihre Rechte\n\nSie haben das Recht auf Auskunft, Berichtigung, Löschung, Einschränkung der Verarbeitung, Datenübertragbarkeit sowie Widerspruch gemäß Art. 15 bis 21 DSGVO. Zudem steht Ihnen ein Beschwerderecht bei einer Aufsichtsbehörde zu.\n\n")
	b.WriteString("## 5. Speicherdauer\n\nPersonenbezogene Daten werden nur so lange gespeichert, wie es für die genannten Zwecke erforderlich ist oder gesetzliche Aufbewahrungspflichten bestehen.\n")
	return b.String(), nil
}

// anthropicAPIURL is a package variable so tests can point the generator at a
// local httptest server.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

var httpClient = &http.Client{Timeout: 60 * time.Second}

type anthropicGenerator struct {
	apiKey string
	model  string
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *anthropicGenerator) GeneratePolicy(ctx context.Context, org auth.Organization, details string, activities []auth.ProcessingActivity) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Erstelle eine DSGVO-konforme Datenschutzerklärung in deutscher Sprache für die Organisation %q.\n", org.Name)
	if details = strings.TrimSpace(details); details != "" {
		fmt.Fprintf(&prompt, "Angaben zur Organisation: %s\n", details)
	}
	if len(activities) > 0 {
		prompt.WriteString("Berücksichtige folgende Verarbeitungstätigkeiten:\n")
		for _, act := range activities {
			fmt.Fprintf(&prompt, "- Name: %s, Zweck: %s, Rechtsgrundlage: %s\n", act.Name, act.Purpose, act.LegalBasis)
		}
	}
	prompt.WriteString("Die Erklärung muss Verantwortlichen, Zwecke, Rechtsgrundlagen, Betroffenenrechte und Speicherdauer abdecken. Antworte nur mit dem Dokument in Markdown.")

	body, err := json.Marshal(anthropicRequest{
		Model:     g.model,
		MaxTokens: 4096,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt.String()}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("model API error: %s", parsed.Error.Message)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("model API returned no text content")
}
