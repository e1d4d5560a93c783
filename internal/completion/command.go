package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/suggest/internal/command"
	"github.com/dshills/suggest/internal/protocol"
)

// ErrNoExecutor is returned when a candidate command must be forwarded but
// no executor was configured.
var ErrNoExecutor = errors.New("no command executor")

// RegisterCommands registers AcceptCommand with reg and uses reg to run
// forwarded candidate commands.
func (a *Aggregator) RegisterCommands(reg *command.Registry) error {
	if err := reg.Register(AcceptCommand, a.accept); err != nil {
		return fmt.Errorf("register completion commands: %w", err)
	}
	a.mu.Lock()
	a.executor = reg
	a.mu.Unlock()
	return nil
}

// accept handles AcceptCommand. args[0] is the item data the command was
// built with.
func (a *Aggregator) accept(ctx context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return nil, protocol.NewResponseError(protocol.CodeInvalidParams, "%s: missing item data", AcceptCommand)
	}
	raw, err := argBytes(args[0])
	if err != nil {
		return nil, protocol.NewResponseError(protocol.CodeInvalidParams, "%s: %v", AcceptCommand, err)
	}
	handle, err := DecodeHandle(raw)
	if err != nil {
		return nil, protocol.NewResponseError(protocol.CodeInvalidParams, "%s: %v", AcceptCommand, err)
	}

	cand, ok := a.cache.Get(handle.Slot, handle.Index)
	if !ok {
		a.inst.CacheMiss(ctx, "accept")
		return nil, protocol.NewResponseError(protocol.CodeInvalidParams,
			"%s: no cached item for provider %s slot %d index %d",
			AcceptCommand, handle.ProviderID, handle.Slot, handle.Index)
	}

	a.log.Info().Str("provider", handle.ProviderID).Str("label", cand.Label).Msg("completion item accepted")
	a.inst.Selection(ctx, handle.ProviderID)

	a.mu.RLock()
	observers := append([]func(Selection){}, a.observers...)
	executor := a.executor
	a.mu.RUnlock()

	sel := Selection{Handle: handle, Item: cand}
	for _, fn := range observers {
		fn(sel)
	}

	if cand.Command == nil || cand.Command.Command == "" || cand.Command.Command == AcceptCommand {
		return nil, nil
	}
	if executor == nil {
		return nil, fmt.Errorf("forward %s: %w", cand.Command.Command, ErrNoExecutor)
	}
	return executor.Execute(ctx, cand.Command.Command, cand.Command.Arguments...)
}

// rawArg wraps item data so it marshals verbatim as a command argument.
func rawArg(data []byte) json.RawMessage {
	return json.RawMessage(append([]byte(nil), data...))
}

// argBytes returns the JSON form of a command argument. Transports may hand
// the argument back raw, as a string, or decoded into Go values.
func argBytes(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case nil:
		return nil, errors.New("nil argument")
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal argument: %w", err)
		}
		return b, nil
	}
}
