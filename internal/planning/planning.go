// Package planning implements the Planning workflow's draft-bead
// generation: turning a natural-language description into a set of draft
// beads via the Anthropic API, independent of whichever cliTool is
// configured for per-bead sessions.
package planning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/errs"
)

const (
	defaultModel   = anthropic.ModelClaude3_5HaikuLatest
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// ErrAPIKeyRequired is returned when no API key is configured.
var ErrAPIKeyRequired = errors.New("ANTHROPIC_API_KEY is required for the planning workflow")

// Client turns a description into a set of draft beads.
type Client struct {
	client         anthropic.Client
	model          anthropic.Model
	maxRetries     int
	initialBackoff time.Duration
}

// New creates a planning client. Env var ANTHROPIC_API_KEY takes
// precedence over an explicit apiKey.
func New(apiKey string) (*Client, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	return &Client{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          defaultModel,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// PlanDrafts asks the model to decompose description into a set of draft
// beads, optionally anchored under a parent epic.
func (c *Client) PlanDrafts(ctx context.Context, description string, parentID string) ([]beadmodel.Draft, error) {
	prompt := renderPlanningPrompt(description, parentID)

	raw, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := parseDraftsJSON(raw, parentID)
	if err != nil {
		return nil, errs.External("planning.parse", raw, err)
	}
	return drafts, nil
}

func renderPlanningPrompt(description, parentID string) string {
	scope := ""
	if parentID != "" {
		scope = fmt.Sprintf(" These will become children of epic %s.", parentID)
	}
	return fmt.Sprintf(`Decompose the following work into a short list of discrete, independently
shippable tasks.%s Respond with ONLY a JSON array of objects, each with
"title", "description", and "issueType" (one of: task, bug, feature, chore).

Work description:
%s`, scope, description)
}

type draftJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
}

func parseDraftsJSON(raw string, parentID string) ([]beadmodel.Draft, error) {
	var parsed []draftJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("planning response was not a JSON array: %w", err)
	}
	out := make([]beadmodel.Draft, 0, len(parsed))
	for _, d := range parsed {
		it := beadmodel.TypeTask
		switch d.IssueType {
		case "bug":
			it = beadmodel.TypeBug
		case "feature":
			it = beadmodel.TypeFeature
		case "chore":
			it = beadmodel.TypeChore
		}
		out = append(out, beadmodel.Draft{
			Title:       d.Title,
			Description: d.Description,
			IssueType:   it,
			ParentID:    parentID,
		})
	}
	return out, nil
}

func (c *Client) callWithRetry(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			if len(message.Content) == 0 {
				return "", errs.External("planning.call", "", fmt.Errorf("no content blocks in response"))
			}
			block := message.Content[0]
			if block.Type != "text" {
				return "", errs.External("planning.call", "", fmt.Errorf("unexpected response block type %q", block.Type))
			}
			return block.Text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", errs.External("planning.call", "", err)
		}
	}
	return "", errs.External("planning.call", "", fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr))
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
