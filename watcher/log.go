package watcher

import (
	"context"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Follower receives the latest snapshot each time the buffer changes.
// C is closed when the watcher stops.
type Follower struct {
	ID string
	C  chan types.Snapshot
}

// Watcher fans buffer snapshots out to followers
type Watcher struct {
	followers map[string]*Follower
	SnapshotC chan types.Snapshot
	FollowerC chan *Follower
	LeaveC    chan string
	done      chan struct{}
}

// New .
func New() *Watcher {
	return &Watcher{
		followers: map[string]*Follower{},
		SnapshotC: make(chan types.Snapshot, 1),
		FollowerC: make(chan *Follower),
		LeaveC:    make(chan string),
		done:      make(chan struct{}),
	}
}

// Serve start watcher
func (w *Watcher) Serve(ctx context.Context) {
	logrus.Info("[logFollow] log watcher started")
	defer logrus.Info("[logFollow] log watcher stopped")
	defer func() {
		close(w.done)
		for ID, follower := range w.followers {
			close(follower.C)
			delete(w.followers, ID)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-w.SnapshotC:
			for _, follower := range w.followers {
				offer(follower.C, snapshot)
			}
		case follower := <-w.FollowerC:
			w.followers[follower.ID] = follower
			logrus.Debugf("[logFollow] %s attached, %d followers", follower.ID, len(w.followers))
		case ID := <-w.LeaveC:
			if follower, ok := w.followers[ID]; ok {
				close(follower.C)
				delete(w.followers, ID)
				logrus.Debugf("[logFollow] %s detached, %d followers", ID, len(w.followers))
			}
		}
	}
}

// Publish never blocks, a snapshot not yet delivered is replaced
func (w *Watcher) Publish(snapshot types.Snapshot) {
	select {
	case <-w.done:
		return
	default:
	}
	offer(w.SnapshotC, snapshot)
}

// Follow registers a new follower
func (w *Watcher) Follow(ctx context.Context) (*Follower, error) {
	follower := &Follower{
		ID: uuid.NewString(),
		C:  make(chan types.Snapshot, 1),
	}
	select {
	case w.FollowerC <- follower:
		return follower, nil
	case <-w.done:
		return nil, common.ErrWatcherStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Leave unregisters a follower, its channel gets closed
func (w *Watcher) Leave(follower *Follower) {
	select {
	case w.LeaveC <- follower.ID:
	case <-w.done:
	}
}

// offer keeps only the newest snapshot in a channel of capacity 1
func offer(ch chan types.Snapshot, snapshot types.Snapshot) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
