package hub

import (
	"context"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

// Dispatcher fans an event out to every session subscribed to a group,
// the sender's own session included. GroupOpened/GroupClosed bracket the
// lifetime of a group's local membership so cross-process implementations
// can manage their bus subscriptions.
type Dispatcher interface {
	Dispatch(ctx context.Context, groupKey string, ev domain.Event) error
	GroupOpened(ctx context.Context, groupKey string) error
	GroupClosed(ctx context.Context, groupKey string) error
	Close() error
}

// deliverLocal pushes one marshaled frame to every current member of the
// group. Each delivery is independent: a failed member never aborts the
// rest of the loop. A member whose queue is full or already gone is closed
// here; its read pump then runs the normal disconnect cleanup, so the
// registry does not keep broadcasting to a dead or wedged connection.
func deliverLocal(reg *Registry, key string, frame []byte) {
	for _, c := range reg.Members(key) {
		if !c.Enqueue(frame) {
			l := log.L()
			l.Warn().Str(log.FieldClientID, c.ID).Str(log.FieldGroupKey, key).
				Msg("closing unreachable client")
			c.Close()
		}
	}
}

// LocalDispatcher fans out within this process only. Correct for
// single-instance deployments; multi-instance deployments must use the
// Redis-backed dispatcher instead.
type LocalDispatcher struct {
	reg *Registry
}

func NewLocalDispatcher(reg *Registry) *LocalDispatcher {
	return &LocalDispatcher{reg: reg}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, groupKey string, ev domain.Event) error {
	frame, err := ev.Frame()
	if err != nil {
		return err
	}
	deliverLocal(d.reg, groupKey, frame)
	return nil
}

func (d *LocalDispatcher) GroupOpened(ctx context.Context, groupKey string) error { return nil }
func (d *LocalDispatcher) GroupClosed(ctx context.Context, groupKey string) error { return nil }
func (d *LocalDispatcher) Close() error                                           { return nil }
