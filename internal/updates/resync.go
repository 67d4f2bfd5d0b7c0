package updates

import (
	"context"

	"github.com/ankit-chaubey/layer/internal/dcpool"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// resync chooses between a full updates.getState baseline (no prior
// checkpoint) and an updates.getDifference catch-up (spec §4.10, run
// once after every fresh connect or reconnect).
func (e *Engine) resync(ctx context.Context, entry *dcpool.Entry) error {
	pts, qts, date, _ := e.pts.snapshot()
	if pts == 0 {
		return e.fullResyncFromState(ctx, entry)
	}
	return e.catchUp(ctx, entry, pts, qts, date)
}

// fullResyncFromState discards any local checkpoint and adopts the
// server's current one via updates.getState, without replaying history
// (spec §4.10 "a full resync via updates.getState").
func (e *Engine) fullResyncFromState(ctx context.Context, entry *dcpool.Entry) error {
	res, err := entry.Call(ctx, "updates.getState", tl.GetState{})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	st, err := tl.DecodeState(tlcodec.NewReader(res.Payload))
	if err != nil {
		return err
	}
	e.pts.adopt(st.Pts, st.Qts, st.Date, st.Seq)
	return nil
}

// catchUp replays every update missed since (pts, qts, date) via
// updates.getDifference, following DifferenceSlice pagination until the
// server reports Empty or Full (spec §4.10 "trigger
// updates.getDifference(pts, qts, date)").
func (e *Engine) catchUp(ctx context.Context, entry *dcpool.Entry, pts, qts, date int32) error {
	for {
		res, err := entry.Call(ctx, "updates.getDifference", tl.GetDifference{Pts: pts, Qts: qts, Date: date})
		if err != nil {
			return err
		}
		if res.Err != nil {
			return res.Err
		}
		diff, err := tl.DecodeDifference(tlcodec.NewReader(res.Payload))
		if err != nil {
			return err
		}

		switch {
		case diff.Empty != nil:
			e.pts.adopt(pts, qts, diff.Empty.Date, diff.Empty.Seq)
			return nil

		case diff.Full != nil:
			e.absorbPeers(diff.Full.Users, diff.Full.Chats)
			e.replayMessages(diff.Full.NewMessages)
			e.replayUpdates(diff.Full.OtherUpdates)
			st := diff.Full.State
			e.pts.adopt(st.Pts, st.Qts, st.Date, st.Seq)
			return nil

		case diff.Slice != nil:
			e.absorbPeers(diff.Slice.Users, diff.Slice.Chats)
			e.replayMessages(diff.Slice.NewMessages)
			e.replayUpdates(diff.Slice.OtherUpdates)
			st := diff.Slice.IntermediateState
			pts, qts, date = st.Pts, st.Qts, st.Date
			continue

		case diff.TooLong != nil:
			e.pts.adopt(diff.TooLong.Pts, qts, date, 0)
			return e.fullResyncFromState(ctx, entry)

		default:
			return nil
		}
	}
}

// replayMessages delivers catch-up messages directly, bypassing gap
// detection: a getDifference response has already resolved the gap.
func (e *Engine) replayMessages(msgs []tl.IncomingMessage) {
	for i := range msgs {
		e.queue.Push(Event{Kind: tl.UpdateKindNewMessage, Message: &msgs[i]})
	}
}

func (e *Engine) replayUpdates(upds []tl.Update) {
	for i := range upds {
		e.queue.Push(Event{Kind: upds[i].Kind, Update: upds[i]})
	}
}
