package updates

import (
	"time"

	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// HandleRawUpdate implements rpc.UpdateSink. It is called synchronously
// from a pool Entry's read loop for every update frame the envelope
// unwrapper does not hand to a waiting caller (spec §4.8's routing table),
// so it must never
// block: gap recovery and full resyncs are handed off to a background
// goroutine.
func (e *Engine) HandleRawUpdate(payload []byte) {
	e.lastActivity.Store(time.Now().UnixNano())

	upd, err := tl.DecodeUpdates(tlcodec.NewReader(payload))
	if err != nil {
		e.logger.Warn("discarding undecodable update frame", "error", err)
		return
	}
	e.absorbPeers(upd.Users, upd.Chats)

	switch {
	case upd.TooLong:
		e.triggerFullResync()
	case upd.ShortUpdate != nil:
		e.observeAndDeliver(*upd.ShortUpdate, upd.ShortMessage)
	default:
		for i := range upd.Updates {
			e.observeAndDeliver(upd.Updates[i], nil)
		}
		e.pts.adoptBatch(upd.Date, upd.Seq)
	}
}

// observeAndDeliver runs gap detection on u and either delivers it
// immediately (in-order), discards it (duplicate), or triggers a
// background getDifference catch-up and withholds it — the catch-up
// itself will redeliver it as part of the replayed batch.
func (e *Engine) observeAndDeliver(u tl.Update, msg *tl.IncomingMessage) {
	switch e.pts.observePts(u.Pts, u.PtsCount) {
	case gapDuplicate:
		if e.metrics != nil {
			e.metrics.RecordPtsDuplicate()
		}
	case gapDetected:
		if e.metrics != nil {
			e.metrics.RecordPtsGap()
		}
		e.triggerResync()
	default:
		e.queue.Push(Event{Kind: u.Kind, Update: u, Message: msg})
	}
}

func (e *Engine) absorbPeers(users []tl.User, chats []tl.Chat) {
	e.peers.AbsorbUsers(users)
	e.peers.AbsorbChats(chats)
}

// triggerResync kicks off an updates.getDifference catch-up from the
// current checkpoint if one isn't already running.
func (e *Engine) triggerResync() { e.spawnResync(false) }

// triggerFullResync kicks off a full updates.getState resync (spec
// §4.10: "updatesTooLong ... triggers a full resync via
// updates.getState") if one isn't already running.
func (e *Engine) triggerFullResync() { e.spawnResync(true) }

func (e *Engine) spawnResync(full bool) {
	if !e.resyncing.CompareAndSwap(false, true) {
		return // a resync is already in flight; it will fix the checkpoint
	}
	go func() {
		defer e.resyncing.Store(false)

		ctx := e.currentCtx()
		home := e.pool.HomeDC()
		entry, ok := e.pool.Get(home)
		if !ok {
			return // superviseLoop will reconnect and resync on its own
		}

		var err error
		if full {
			err = e.fullResyncFromState(ctx, entry)
		} else {
			pts, qts, date, _ := e.pts.snapshot()
			err = e.catchUp(ctx, entry, pts, qts, date)
		}
		if err != nil {
			e.logger.Warn("resync failed", "error", err)
		}
	}()
}
