/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package sheets

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/example/sprint-pilot/internal/config"
    "github.com/rs/zerolog"
)

// Client talks to the Google Sheets v4 values API with a bearer token.
type Client struct {
    token         string
    spreadsheetID string
    http          *http.Client
    log           zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{ token: cfg.SheetsToken, spreadsheetID: cfg.SheetsSpreadsheetID, http: &http.Client{ Timeout: cfg.HTTPTimeout }, log: log }
}

func (c *Client) valuesURL(rng string, q url.Values) string {
    u := "https://sheets.googleapis.com/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID) + "/values/" + url.PathEscape(rng)
    if q != nil && len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// ReadRange returns the cell grid of the given A1 range, rows of strings.
func (c *Client) ReadRange(ctx context.Context, rng string) ([][]string, error) {
    if c.token == "" || c.spreadsheetID == "" { return nil, errors.New("sheets: missing token or spreadsheet id") }
    if rng == "" { return nil, errors.New("sheets: empty range") }
    q := url.Values{}
    q.Set("valueRenderOption", "UNFORMATTED_VALUE")
    out, err := c.doJSON(ctx, http.MethodGet, c.valuesURL(rng, q), nil)
    if err != nil { return nil, err }
    vals, _ := out["values"].([]any)
    rows := make([][]string, 0, len(vals))
    for _, r0 := range vals {
        cells, _ := r0.([]any)
        row := make([]string, 0, len(cells))
        for _, cell := range cells { row = append(row, fmt.Sprint(cell)) }
        rows = append(rows, row)
    }
    return rows, nil
}

// WriteRange replaces the given A1 range with the provided grid.
func (c *Client) WriteRange(ctx context.Context, rng string, rows [][]string) error {
    if c.token == "" || c.spreadsheetID == "" { return errors.New("sheets: missing token or spreadsheet id") }
    if rng == "" { return errors.New("sheets: empty range") }
    vals := make([][]any, 0, len(rows))
    for _, r := range rows {
        row := make([]any, 0, len(r))
        for _, cell := range r { row = append(row, cell) }
        vals = append(vals, row)
    }
    q := url.Values{}
    q.Set("valueInputOption", "RAW")
    body := map[string]any{"range": rng, "majorDimension": "ROWS", "values": vals}
    _, err := c.doJSON(ctx, http.MethodPut, c.valuesURL(rng, q), body)
    return err
}

// Clear empties the given A1 range.
func (c *Client) Clear(ctx context.Context, rng string) error {
    if c.token == "" || c.spreadsheetID == "" { return errors.New("sheets: missing token or spreadsheet id") }
    u := "https://sheets.googleapis.com/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID) + "/values/" + url.PathEscape(rng) + ":clear"
    _, err := c.doJSON(ctx, http.MethodPost, u, map[string]any{})
    return err
}

func (c *Client) doJSON(ctx context.Context, method, u string, body any) (map[string]any, error) {
    var b []byte
    if body != nil {
        var err error
        b, err = json.Marshal(body)
        if err != nil { return nil, err }
    }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        var r io.Reader
        if b != nil { r = bytes.NewReader(b) }
        req, err := http.NewRequestWithContext(ctx, method, u, r)
        if err != nil { return nil, err }
        if body != nil { req.Header.Set("Content-Type", "application/json") }
        req.Header.Set("Authorization", "Bearer "+c.token)
        resp, err := c.http.Do(req)
        if err != nil { lastErr = err } else {
            defer resp.Body.Close()
            if resp.StatusCode >= 300 {
                rb, _ := io.ReadAll(resp.Body)
                // retry on 429/5xx
                if resp.StatusCode == 429 || resp.StatusCode >= 500 {
                    lastErr = fmt.Errorf("sheets api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(rb)))
                } else {
                    return nil, fmt.Errorf("sheets api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(rb)))
                }
            } else {
                var out map[string]any
                if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return nil, err }
                return out, nil
            }
        }
        time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
    }
    return nil, lastErr
}
