package client

import (
	"context"

	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// MessageIter pages backwards through a peer's message history via repeated
// messages.getHistory calls (spec's pagination surface over any RPC
// function/response pair carrying an offset and a total count).
type MessageIter struct {
	c        *Client
	dcID     int32
	peer     tl.InputPeer
	limit    int32
	offsetID int32

	buf  []tl.IncomingMessage
	idx  int
	done bool

	total    int32
	hasTotal bool
}

// IterMessages returns a MessageIter over peer's history on dcID, fetching
// limit messages per page.
func (c *Client) IterMessages(dcID int32, peer tl.InputPeer, limit int32) *MessageIter {
	return &MessageIter{c: c, dcID: dcID, peer: peer, limit: limit}
}

// Next returns the next message, fetching another page if the current one
// is exhausted. The second return is false once history is exhausted.
func (it *MessageIter) Next(ctx context.Context) (tl.IncomingMessage, bool, error) {
	for it.idx >= len(it.buf) {
		if it.done {
			return tl.IncomingMessage{}, false, nil
		}
		if err := it.fetch(ctx); err != nil {
			return tl.IncomingMessage{}, false, err
		}
	}
	m := it.buf[it.idx]
	it.idx++
	return m, true, nil
}

// Total reports the server-advertised total message count, once any page
// has carried one.
func (it *MessageIter) Total() (int32, bool) { return it.total, it.hasTotal }

func (it *MessageIter) fetch(ctx context.Context) error {
	res, err := it.c.Call(ctx, it.dcID, "messages.getHistory", tl.GetHistory{
		Peer:     it.peer,
		OffsetID: it.offsetID,
		Limit:    it.limit,
	})
	if err != nil {
		return err
	}
	page, err := tl.DecodeMessagesPage(tlcodec.NewReader(res.Payload))
	if err != nil {
		return err
	}

	it.c.Peers().AbsorbUsers(page.Users)
	it.c.Peers().AbsorbChats(page.Chats)
	it.applyPage(page)
	return nil
}

// applyPage folds one decoded page into the iterator's cursor state. Split
// out from fetch so the paging arithmetic can be exercised without an RPC
// round trip.
func (it *MessageIter) applyPage(page tl.MessagesPage) {
	if page.HasCount {
		it.total, it.hasTotal = page.Count, true
	}

	it.buf, it.idx = page.Messages, 0
	if len(page.Messages) == 0 || int32(len(page.Messages)) < it.limit {
		it.done = true
		return
	}
	it.offsetID = page.Messages[len(page.Messages)-1].ID
}

// ParticipantIter pages through a channel's member list via repeated
// channels.getParticipants calls.
type ParticipantIter struct {
	c       *Client
	dcID    int32
	channel tl.InputChannel
	limit   int32
	offset  int32

	buf  []tl.Participant
	idx  int
	done bool

	total    int32
	hasTotal bool
}

// IterParticipants returns a ParticipantIter over channel's member list on
// dcID, fetching limit participants per page.
func (c *Client) IterParticipants(dcID int32, channel tl.InputChannel, limit int32) *ParticipantIter {
	return &ParticipantIter{c: c, dcID: dcID, channel: channel, limit: limit}
}

// Next returns the next participant, fetching another page if needed. The
// second return is false once the member list is exhausted.
func (it *ParticipantIter) Next(ctx context.Context) (tl.Participant, bool, error) {
	for it.idx >= len(it.buf) {
		if it.done {
			return tl.Participant{}, false, nil
		}
		if err := it.fetch(ctx); err != nil {
			return tl.Participant{}, false, err
		}
	}
	p := it.buf[it.idx]
	it.idx++
	return p, true, nil
}

// Total reports the server-advertised total participant count.
func (it *ParticipantIter) Total() (int32, bool) { return it.total, it.hasTotal }

func (it *ParticipantIter) fetch(ctx context.Context) error {
	res, err := it.c.Call(ctx, it.dcID, "channels.getParticipants", tl.GetParticipants{
		Channel: it.channel,
		Offset:  it.offset,
		Limit:   it.limit,
	})
	if err != nil {
		return err
	}
	page, err := tl.DecodeParticipantsPage(tlcodec.NewReader(res.Payload))
	if err != nil {
		return err
	}

	it.c.Peers().AbsorbUsers(page.Users)
	it.applyPage(page)
	return nil
}

// applyPage folds one decoded page into the iterator's cursor state. Split
// out from fetch so the paging arithmetic can be exercised without an RPC
// round trip.
func (it *ParticipantIter) applyPage(page tl.ParticipantsPage) {
	it.total, it.hasTotal = page.Count, true

	it.buf, it.idx = page.Participants, 0
	it.offset += int32(len(page.Participants))
	if len(page.Participants) == 0 || it.offset >= it.total {
		it.done = true
	}
}
