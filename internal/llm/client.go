// Package llm is a thin client for an OpenAI-compatible chat completions
// endpoint, used by the marketplace assistant.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tianguis-beats/internal/currency"
)

type Client struct {
	APIURL     string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewClient(apiURL, apiKey, model string) *Client {
	return &Client{
		APIURL:     apiURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CatalogBeat is the slice of a beat row the assistant is allowed to see.
type CatalogBeat struct {
	Title           string `db:"title"`
	Genre           string `db:"genre"`
	BPM             int    `db:"bpm"`
	PriceBasicCents int64  `db:"price_basic_cents"`
}

// Filters is the structured object the assistant may emit so the UI can
// redirect into a filtered catalog view.
type Filters struct {
	Genre  string `json:"genre,omitempty"`
	Mood   string `json:"mood,omitempty"`
	BPMMin int    `json:"bpm_min,omitempty"`
	BPMMax int    `json:"bpm_max,omitempty"`
}

const maxCatalogRows = 5

// SystemPrompt builds the canned assistant prompt, enriched with up to five
// public catalog rows so the assistant can recommend real beats.
func SystemPrompt(beats []CatalogBeat) string {
	var b strings.Builder
	b.WriteString("Eres el asistente de Tianguis Beats, un marketplace mexicano de beats, ")
	b.WriteString("sound kits y servicios de produccion. Responde en el idioma del usuario, ")
	b.WriteString("breve y amigable. Si el usuario busca beats por genero, mood o BPM, ")
	b.WriteString("incluye al final de tu respuesta un bloque ```json con un objeto ")
	b.WriteString(`{"genre","mood","bpm_min","bpm_max"} para filtrar el catalogo.`)

	if len(beats) > maxCatalogRows {
		beats = beats[:maxCatalogRows]
	}
	if len(beats) > 0 {
		b.WriteString("\n\nAlgunos beats disponibles ahora:\n")
		for _, beat := range beats {
			fmt.Fprintf(&b, "- %s (%s, %d BPM, desde %s)\n",
				beat.Title, beat.Genre, beat.BPM,
				currency.FormatPrice(float64(beat.PriceBasicCents)/100, currency.Base))
		}
	}
	return b.String()
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends the message list and returns the assistant's raw reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ExtractFilters splits an assistant reply into display text and the
// optional structured filter object carried in a fenced json block.
// A malformed block is dropped silently: the user still gets the text.
func ExtractFilters(reply string) (string, *Filters) {
	start := strings.Index(reply, "```json")
	if start < 0 {
		return strings.TrimSpace(reply), nil
	}

	rest := reply[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(reply), nil
	}

	var f Filters
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &f); err != nil {
		return strings.TrimSpace(reply), nil
	}
	if f == (Filters{}) {
		return strings.TrimSpace(reply[:start] + rest[end+3:]), nil
	}

	text := strings.TrimSpace(reply[:start] + rest[end+3:])
	return text, &f
}
