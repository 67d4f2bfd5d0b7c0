package tl

import (
	"testing"

	"github.com/ankit-chaubey/layer/internal/tlcodec"
)

func encodeFixtureChatAdminRights(w *tlcodec.Writer) {
	w.PutUint32(idChatAdminRights)
	w.PutInt32(0)
}

func encodeFixtureChatBannedRights(w *tlcodec.Writer) {
	w.PutUint32(idChatBannedRights)
	w.PutInt32(0) // flags
	w.PutInt32(0) // until_date
}

func TestGetParticipantsEncode(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(64)
	GetParticipants{
		Channel: InputChannel{ChannelID: 100, HashID: 200},
		Offset:  0,
		Limit:   50,
	}.Encode(w)

	r := tlcodec.NewReader(w.Bytes())
	if id, _ := r.Uint32(); id != idChannelsGetParticipants {
		t.Fatalf("constructor id = %#x, want channels.getParticipants", id)
	}
	if id, _ := r.Uint32(); id != 0x89938818 {
		t.Fatalf("input_channel id = %#x", id)
	}
	if cid, _ := r.Int64(); cid != 100 {
		t.Fatalf("channel id = %d, want 100", cid)
	}
	if hash, _ := r.Int64(); hash != 200 {
		t.Fatalf("channel hash = %d, want 200", hash)
	}
}

func TestDecodeParticipantsPage(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(128)
	w.PutUint32(idChannelParticipants)
	w.PutInt32(2) // count

	w.VectorHeader(2)
	w.PutUint32(idChannelParticipant)
	w.PutInt64(11)
	w.PutInt32(1000) // date

	w.PutUint32(idChannelParticipantLeft)
	w.PutUint32(idPeerUser)
	w.PutInt64(22)

	w.VectorHeader(1)
	encodeFixtureUserEmpty(w, 11)

	page, err := DecodeParticipantsPage(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeParticipantsPage() error = %v", err)
	}
	if page.Count != 2 {
		t.Fatalf("page.Count = %d, want 2", page.Count)
	}
	if len(page.Participants) != 2 || page.Participants[0].UserID != 11 || page.Participants[1].UserID != 22 {
		t.Fatalf("page.Participants = %+v", page.Participants)
	}
	if len(page.Users) != 1 || page.Users[0].ID != 11 {
		t.Fatalf("page.Users = %+v", page.Users)
	}
}

func TestDecodeParticipantSelf(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(32)
	w.PutUint32(idChannelParticipantSelf)
	w.PutInt64(9)    // user_id
	w.PutInt64(5)    // inviter_id
	w.PutInt32(1000) // date

	p, err := decodeParticipant(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeParticipant() error = %v", err)
	}
	if p.UserID != 9 {
		t.Fatalf("p.UserID = %d, want 9", p.UserID)
	}
}

func TestDecodeParticipantCreatorWithRank(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(32)
	w.PutUint32(idChannelParticipantCreator)
	w.PutInt32(1 << 0) // flags: rank present
	w.PutInt64(12)     // user_id
	encodeFixtureChatAdminRights(w)
	w.PutString("owner")

	p, err := decodeParticipant(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeParticipant() error = %v", err)
	}
	if p.UserID != 12 {
		t.Fatalf("p.UserID = %d, want 12", p.UserID)
	}
}

func TestDecodeParticipantAdminWithOptionalFields(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(64)
	w.PutUint32(idChannelParticipantAdmin)
	w.PutInt32(1<<1 | 1<<2) // flags: inviter_id present, rank present
	w.PutInt64(33)          // user_id
	w.PutInt64(44)          // inviter_id
	w.PutInt64(1)           // promoted_by
	w.PutInt32(1000)        // date
	encodeFixtureChatAdminRights(w)
	w.PutString("owner")

	p, err := decodeParticipant(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeParticipant() error = %v", err)
	}
	if p.UserID != 33 {
		t.Fatalf("p.UserID = %d, want 33", p.UserID)
	}
}

func TestDecodeParticipantAdminWithoutOptionalFields(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(64)
	w.PutUint32(idChannelParticipantAdmin)
	w.PutInt32(0)    // flags: no inviter_id, no rank
	w.PutInt64(34)   // user_id
	w.PutInt64(1)    // promoted_by
	w.PutInt32(1000) // date
	encodeFixtureChatAdminRights(w)

	p, err := decodeParticipant(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeParticipant() error = %v", err)
	}
	if p.UserID != 34 {
		t.Fatalf("p.UserID = %d, want 34", p.UserID)
	}
}

func TestDecodeParticipantBanned(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(64)
	w.PutUint32(idChannelParticipantBanned)
	w.PutInt32(0) // flags
	w.PutUint32(idPeerUser)
	w.PutInt64(77)   // peer user_id
	w.PutInt64(1)    // kicked_by
	w.PutInt32(1000) // date
	encodeFixtureChatBannedRights(w)

	p, err := decodeParticipant(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeParticipant() error = %v", err)
	}
	if p.UserID != 77 {
		t.Fatalf("p.UserID = %d, want 77", p.UserID)
	}
}

func TestDecodeParticipantRejectsUnknownConstructor(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(4)
	w.PutUint32(0xdeadbeef)
	if _, err := decodeParticipant(tlcodec.NewReader(w.Bytes())); err == nil {
		t.Fatal("decodeParticipant() with an unknown constructor = nil error, want one")
	}
}
