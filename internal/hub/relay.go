package hub

import (
	"context"
	"sync"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/pkg/log"
	"github.com/JoseMiracle/MIMI/pkg/pubsub"
)

// RedisDispatcher routes every dispatch through the shared Redis bus so
// fan-out reaches group members connected to other server instances.
// One bus subscription is held per locally-populated group; events coming
// off the bus (this instance's own publishes included) are decoded and
// delivered to local members. Delivery guarantees are those of Redis
// pub/sub: at-least-once to connected subscribers, nothing for instances
// that are down. That external dependency is deliberate.
type RedisDispatcher struct {
	reg *Registry
	bus pubsub.PubSub

	base   context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]context.CancelFunc // group key -> subscription cancel
}

func NewRedisDispatcher(reg *Registry, bus pubsub.PubSub) *RedisDispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &RedisDispatcher{
		reg:    reg,
		bus:    bus,
		base:   base,
		cancel: cancel,
		subs:   make(map[string]context.CancelFunc),
	}
}

// Dispatch publishes the event envelope; local delivery happens when the
// envelope comes back through the group's subscription.
func (d *RedisDispatcher) Dispatch(ctx context.Context, groupKey string, ev domain.Event) error {
	env, err := pubsub.NewEvent(string(ev.Kind()), groupKey, ev)
	if err != nil {
		return err
	}
	return d.bus.Publish(ctx, pubsub.FanoutChannel(groupKey), env)
}

// GroupOpened starts the bus subscription for a group when its first local
// member joins.
func (d *RedisDispatcher) GroupOpened(ctx context.Context, groupKey string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[groupKey]; ok {
		return nil
	}

	subCtx, cancel := context.WithCancel(d.base)
	events, err := d.bus.Subscribe(subCtx, pubsub.FanoutChannel(groupKey))
	if err != nil {
		cancel()
		return err
	}

	d.subs[groupKey] = cancel
	go d.consume(events)

	l := log.L()
	l.Debug().Str(log.FieldGroupKey, groupKey).Msg("bus subscription opened")
	return nil
}

// GroupClosed drops the bus subscription once the last local member left.
func (d *RedisDispatcher) GroupClosed(ctx context.Context, groupKey string) error {
	d.mu.Lock()
	cancel, ok := d.subs[groupKey]
	if ok {
		delete(d.subs, groupKey)
	}
	d.mu.Unlock()

	if !ok {
		return nil
	}
	cancel()
	return d.bus.Unsubscribe(ctx, pubsub.FanoutChannel(groupKey))
}

func (d *RedisDispatcher) consume(events <-chan *pubsub.Event) {
	for env := range events {
		ev, err := domain.DecodeEvent(domain.EventKind(env.Kind), env.Payload)
		if err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldGroupKey, env.Group).Msg("dropping undecodable bus event")
			continue
		}

		frame, err := ev.Frame()
		if err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldGroupKey, env.Group).Msg("failed to build frame from bus event")
			continue
		}

		deliverLocal(d.reg, env.Group, frame)
	}
}

// Close tears down every subscription loop. The bus itself belongs to the
// caller.
func (d *RedisDispatcher) Close() error {
	d.cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	for key, cancel := range d.subs {
		cancel()
		delete(d.subs, key)
	}
	return nil
}
