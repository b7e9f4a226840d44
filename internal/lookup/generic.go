package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ethos-finder/ethos/internal/provider"
)

// genericAll queries every generic provider concurrently. Each failure is
// recorded against its provider only.
func (d *Dispatcher) genericAll(ctx context.Context, targets []paidTarget, kind provider.Kind, query string, col *collector) bool {
	var contributed atomic.Bool
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for _, t := range targets {
		if err := provider.Check(t.desc, kind); err != nil {
			d.log.Debug().Err(err).Msg("skipping provider")
			continue
		}
		if d.cancelled(ctx, col) {
			break
		}
		g.Go(func() error {
			out, err := d.generic.Query(ctx, t.desc, kind, query, t.secret)
			if err != nil {
				col.fail(t.desc.Name, err)
				return nil
			}
			fields := flatten(t.desc.Name, out)
			col.addAll(fields)
			if len(fields) > 0 {
				contributed.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return contributed.Load()
}

// flatten turns the top level of a JSON response into fields. Strings are kept
// as is; other values are re-encoded as JSON. A non-object response becomes a
// single "response" field.
func flatten(providerName string, v any) []Field {
	obj, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return nil
		}
		return []Field{{Provider: providerName, Name: "response", Value: jsonValue(v)}}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Provider: providerName, Name: k, Value: jsonValue(obj[k])})
	}
	return fields
}

func jsonValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
