package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for channels.getParticipants and the ChannelParticipant
// family it returns (spec's ParticipantIter pagination).
const (
	idChannelsGetParticipants uint32 = 0x77ced9d0
	idChannelParticipantsRecent uint32 = 0xde3f3c79

	idChannelParticipant        uint32 = 0x1bcdfa95
	idChannelParticipantSelf    uint32 = 0xa3289a6d
	idChannelParticipantCreator uint32 = 0x447dca4b
	idChannelParticipantAdmin   uint32 = 0x34c3bb53
	idChannelParticipantBanned  uint32 = 0x6df8014e
	idChannelParticipantLeft    uint32 = 0x1b03f006

	idChannelParticipants uint32 = 0x9ab0feaf
)

// InputChannel addresses a channel/supergroup in an outgoing RPC (spec's
// Peer Cache: addressing any non-self channel requires a cached hash).
type InputChannel struct {
	ChannelID int64
	HashID    int64
}

// Encode serializes input_channel.
func (c InputChannel) Encode(w *tlcodec.Writer) {
	w.PutUint32(0x89938818) // inputChannel#89938818
	w.PutInt64(c.ChannelID)
	w.PutInt64(c.HashID)
}

// GetParticipants is channels.getParticipants, paging through a channel's
// member list (spec's ParticipantIter pagination, mirroring GetHistory's
// offset/limit shape).
type GetParticipants struct {
	Channel InputChannel
	Offset  int32
	Limit   int32
}

// Encode serializes channels.getParticipants. The filter is always
// ChannelParticipantsRecent; this client does not expose admin/banned/bot
// filtering.
func (g GetParticipants) Encode(w *tlcodec.Writer) {
	w.PutUint32(idChannelsGetParticipants)
	g.Channel.Encode(w)
	w.PutUint32(idChannelParticipantsRecent)
	w.PutInt32(g.Offset)
	w.PutInt32(g.Limit)
	w.PutInt32(0) // hash
}

// Participant carries the subset of ChannelParticipant this client acts
// on: the member's user id, enough to cross-reference into the
// accompanying Users vector.
type Participant struct {
	UserID int64
}

func decodeParticipant(r *tlcodec.Reader) (Participant, error) {
	id, err := r.Uint32()
	if err != nil {
		return Participant{}, err
	}
	switch id {
	case idChannelParticipant:
		uid, err := r.Int64()
		if err != nil {
			return Participant{}, err
		}
		if _, err := r.Int32(); err != nil { // date
			return Participant{}, err
		}
		return Participant{UserID: uid}, nil
	case idChannelParticipantSelf:
		uid, err := r.Int64()
		if err != nil {
			return Participant{}, err
		}
		if _, err := r.Int64(); err != nil { // inviter_id
			return Participant{}, err
		}
		if _, err := r.Int32(); err != nil { // date
			return Participant{}, err
		}
		return Participant{UserID: uid}, nil
	case idChannelParticipantCreator:
		flags, err := r.Int32()
		if err != nil {
			return Participant{}, err
		}
		uid, err := r.Int64()
		if err != nil {
			return Participant{}, err
		}
		if err := skipChatAdminRights(r); err != nil {
			return Participant{}, err
		}
		if flags&1<<0 != 0 {
			if _, err := r.String(); err != nil { // rank
				return Participant{}, err
			}
		}
		return Participant{UserID: uid}, nil
	case idChannelParticipantAdmin:
		flags, err := r.Int32()
		if err != nil {
			return Participant{}, err
		}
		uid, err := r.Int64()
		if err != nil {
			return Participant{}, err
		}
		if flags&(1<<1) != 0 {
			if _, err := r.Int64(); err != nil { // inviter_id
				return Participant{}, err
			}
		}
		if _, err := r.Int64(); err != nil { // promoted_by
			return Participant{}, err
		}
		if _, err := r.Int32(); err != nil { // date
			return Participant{}, err
		}
		if err := skipChatAdminRights(r); err != nil {
			return Participant{}, err
		}
		if flags&(1<<2) != 0 {
			if _, err := r.String(); err != nil { // rank
				return Participant{}, err
			}
		}
		return Participant{UserID: uid}, nil
	case idChannelParticipantBanned:
		flags, err := r.Int32()
		if err != nil {
			return Participant{}, err
		}
		peer, err := decodePeer(r)
		if err != nil {
			return Participant{}, err
		}
		if _, err := r.Int64(); err != nil { // kicked_by
			return Participant{}, err
		}
		if _, err := r.Int32(); err != nil { // date
			return Participant{}, err
		}
		if err := skipChatBannedRights(r); err != nil {
			return Participant{}, err
		}
		_ = flags
		return Participant{UserID: peer.UserID}, nil
	case idChannelParticipantLeft:
		peer, err := decodePeer(r)
		if err != nil {
			return Participant{}, err
		}
		return Participant{UserID: peer.UserID}, nil
	default:
		return Participant{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

// ParticipantsPage is channels.channelParticipants, one page of a channel's
// member list plus the total Count backing a pagination cursor.
type ParticipantsPage struct {
	Count        int32
	Participants []Participant
	Users        []User
}

// DecodeParticipantsPage reads a boxed channels.channelParticipants
// constructor.
func DecodeParticipantsPage(r *tlcodec.Reader) (ParticipantsPage, error) {
	id, err := r.Uint32()
	if err != nil {
		return ParticipantsPage{}, err
	}
	if id != idChannelParticipants {
		return ParticipantsPage{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v ParticipantsPage
	if v.Count, err = r.Int32(); err != nil {
		return ParticipantsPage{}, err
	}
	n, err := r.VectorHeader()
	if err != nil {
		return ParticipantsPage{}, err
	}
	v.Participants = make([]Participant, 0, n)
	for range n {
		p, err := decodeParticipant(r)
		if err != nil {
			return ParticipantsPage{}, err
		}
		v.Participants = append(v.Participants, p)
	}
	nu, err := r.VectorHeader()
	if err != nil {
		return ParticipantsPage{}, err
	}
	v.Users = make([]User, 0, nu)
	for range nu {
		u, err := DecodeUser(r)
		if err != nil {
			return ParticipantsPage{}, err
		}
		v.Users = append(v.Users, u)
	}
	return v, nil
}
