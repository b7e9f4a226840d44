package lookup

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ethos-finder/ethos/internal/provider"
)

// freeHandle probes every platform for a profile. Results are merged in
// platform order once all probes are done.
func (d *Dispatcher) freeHandle(ctx context.Context, handle string, col *collector) {
	descs := d.registry.For(provider.KindHandle, provider.TierFree)
	results := make([]*provider.ProbeResult, len(descs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, desc := range descs {
		p, ok := d.registry.Platform(desc.Name)
		if !ok || provider.Check(desc, provider.KindHandle) != nil {
			continue
		}
		if d.cancelled(ctx, col) {
			break
		}
		g.Go(func() error {
			res := d.client.Probe(ctx, desc, p.URL(handle))
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	for i, desc := range descs {
		res := results[i]
		if res == nil {
			continue
		}
		col.addAll(probeFields(desc.Name, *res))
	}
}

func probeFields(name string, res provider.ProbeResult) []Field {
	fields := []Field{
		{Provider: name, Name: "exists", Value: strconv.FormatBool(res.Exists())},
	}
	if res.Status != 0 {
		fields = append(fields, Field{Provider: name, Name: "status", Value: strconv.Itoa(res.Status)})
	}
	fields = append(fields, Field{Provider: name, Name: "url", Value: res.URL})
	if res.Err != nil {
		fields = append(fields, Field{Provider: name, Name: "error", Value: res.Err.Error()})
	}
	return fields
}
