package updates

import "sync"

// gapResult classifies one (pts, pts_count) observation against the
// locally tracked checkpoint (spec §4.10 "Gap detection").
type gapResult int

const (
	gapInOrder gapResult = iota
	gapDetected
	gapDuplicate
)

// ptsState tracks the update sequence checkpoint (pts, qts, date, seq)
// under its own mutex (spec §5 "The pts state is updated only from the
// update loop and get_difference path; reads must acquire the same
// mutex"). It is the sans-IO half of gap detection: observe reports what
// to do, the caller drives any resulting RPC.
type ptsState struct {
	mu   sync.Mutex
	pts  int32
	qts  int32
	date int32
	seq  int32
}

// observePts compares an update's (pts, pts_count) against the tracked
// checkpoint. Equal to pts+ptsCount means in-order: it advances the
// checkpoint and returns gapInOrder. Greater means a gap. Less than or
// equal to the current pts means a duplicate, already applied.
func (s *ptsState) observePts(pts, ptsCount int32) gapResult {
	if pts == 0 {
		return gapInOrder // this update kind carries no pts (e.g. a bot query)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case pts <= s.pts:
		return gapDuplicate
	case pts == s.pts+ptsCount:
		s.pts = pts
		return gapInOrder
	default:
		return gapDetected
	}
}

// snapshot returns the checkpoint as the tl.GetDifference/State shape.
func (s *ptsState) snapshot() (pts, qts, date, seq int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pts, s.qts, s.date, s.seq
}

// adopt overwrites the checkpoint, e.g. after updates.getState or the
// State trailer of a Difference response.
func (s *ptsState) adopt(pts, qts, date, seq int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pts, s.qts, s.date, s.seq = pts, qts, date, seq
}

// adoptBatch folds a combined/top-level Updates batch's date and seq into
// the checkpoint without touching pts, which only ever advances per
// individual update.
func (s *ptsState) adoptBatch(date, seq int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if date != 0 {
		s.date = date
	}
	if seq != 0 {
		s.seq = seq
	}
}
