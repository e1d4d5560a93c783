package completion

import (
	"context"

	"github.com/dshills/suggest/internal/protocol"
)

// Resolve asks the provider that produced item to fill in deferred fields.
//
// The item is returned unchanged when its data holds no valid handle, the
// cached candidate was evicted, or the provider is gone or cannot resolve.
// The resolved item keeps the handle data and the command of item.
func (a *Aggregator) Resolve(ctx context.Context, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	handle, err := DecodeHandle(item.Data)
	if err != nil {
		a.log.Debug().Str("label", item.Label).Err(err).Msg("resolve without handle")
		return item, nil
	}

	cand, ok := a.cache.Get(handle.Slot, handle.Index)
	if !ok {
		a.inst.CacheMiss(ctx, "resolve")
		a.log.Debug().
			Str("provider", handle.ProviderID).
			Int("slot", int(handle.Slot)).
			Int("index", handle.Index).
			Msg("resolve cache miss")
		return item, nil
	}

	provider, ok := a.registry.ProviderByID(handle.ProviderID)
	if !ok {
		return item, nil
	}
	resolver, ok := provider.(Resolver)
	if !ok {
		return item, nil
	}

	rctx, end := a.inst.StartResolve(ctx, handle.ProviderID)
	resolved, err := resolver.ResolveCandidate(rctx, cand)
	if err != nil {
		err = &ProviderError{ProviderID: handle.ProviderID, Op: "resolve", Err: err}
		end(err)
		return item, err
	}
	end(nil)
	if resolved == nil {
		return item, nil
	}

	data, err := handle.Encode()
	if err != nil {
		return item, err
	}
	out := a.converter.Convert(resolved, data)
	out.Command = item.Command
	return out, nil
}
