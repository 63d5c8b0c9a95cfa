package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/teemow/graphplanner/internal/graph"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for one ID
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult is the JSON document returned by multi-ID tools
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseIDs reads a tool argument holding one ID or a list of IDs. Clients
// that cannot send arrays may pass a JSON array as a string. IDs are
// trimmed and duplicates dropped, keeping the first occurrence.
func ParseIDs(param any, name string) ([]string, error) {
	var raw []any
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	case string:
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") && json.Unmarshal([]byte(v), &raw) == nil {
			break
		}
		raw = []any{v}
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	case []any:
		raw = v
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", name)
	}
	ids := make([]string, 0, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", name, i)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if len(raw) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", name)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", name, i)
		}
		if !slices.Contains(ids, s) {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// Process calls fn for each ID in order. After ctx is done the remaining
// IDs fail with the context error without calling fn.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		err := ctx.Err()
		var msg string
		if err == nil {
			msg, err = fn(ctx, id)
		}
		if err != nil {
			results = append(results, Result{ID: id, Status: StatusError, Error: graph.DisplayMessage(err)})
			continue
		}
		results = append(results, Result{ID: id, Status: StatusSuccess, Result: msg})
	}
	return results
}

// Summarize counts successes and failures
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults renders the summary as indented JSON
func FormatResults(results []Result) string {
	out, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(out)
}
