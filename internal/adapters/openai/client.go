package openai

import (
    "context"
    "encoding/json"
    "errors"
    "strings"

    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"

    "github.com/example/sprint-pilot/internal/config"
)

type Client struct {
    key   string
    model string
    cli   openai.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4.1-mini" }
    cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
    return &Client{ key: cfg.OpenAIKey, model: model, cli: cli, log: log }
}

// Enabled reports whether an API key was configured; the digest falls back to
// the plain-text summary when it was not.
func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

// SummarizePlan turns per-sprint counts and the unplanned list into a short
// narrative for the planning digest.
func (c *Client) SummarizePlan(ctx context.Context, project string, sprintCounts map[string]int, unplanned []string) (string, error) {
    if !c.Enabled() { return "", errors.New("openai: missing key") }
    c.log.Info().Str("model", c.model).Str("project", project).Msg("openai SummarizePlan call")
    payload := map[string]any{"project": project, "sprint_issue_counts": sprintCounts, "unplanned_issues": unplanned}
    userContent := ""
    if b, err := json.Marshal(payload); err == nil { userContent = string(b) }
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage("You are a delivery manager. Given per-sprint issue counts and the list of issues that could not be scheduled, write a concise planning digest in plain text. Call out overloaded sprints and anything unschedulable. Four sentences maximum."),
            openai.UserMessage(userContent),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return resp.Choices[0].Message.Content, nil
}
