package feed

import (
	"context"
	"encoding/json"
	"fmt"
)

// mapGetter serves canned JSON keyed by URL.
type mapGetter struct {
	responses map[string]string
	calls     []string
}

func (g *mapGetter) GetJSON(_ context.Context, url string, _ map[string]string, out any) error {
	g.calls = append(g.calls, url)
	body, ok := g.responses[url]
	if !ok {
		return fmt.Errorf("no canned response for %s", url)
	}
	return json.Unmarshal([]byte(body), out)
}

// seqGetter serves canned JSON in call order and records the query params
// of each call. An empty queue entry simulates a fetch failure.
type seqGetter struct {
	queue  []string
	params []map[string]string
}

func (g *seqGetter) GetJSON(_ context.Context, _ string, params map[string]string, out any) error {
	g.params = append(g.params, params)
	if len(g.queue) == 0 {
		return fmt.Errorf("unexpected call %d", len(g.params))
	}
	body := g.queue[0]
	g.queue = g.queue[1:]
	if body == "" {
		return fmt.Errorf("simulated fetch failure")
	}
	return json.Unmarshal([]byte(body), out)
}
