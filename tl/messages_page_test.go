package tl

import (
	"testing"

	"github.com/ankit-chaubey/layer/internal/tlcodec"
)

func encodeFixtureMessage(w *tlcodec.Writer, id int32, peerUserID int64, text string) {
	w.PutUint32(idMessage)
	w.PutInt32(0) // flags: no from_id, fwd header, via_bot, reply header
	w.PutInt32(id)
	w.PutUint32(idPeerUser)
	w.PutInt64(peerUserID)
	w.PutInt32(1000) // date
	w.PutString(text)
}

func encodeFixtureUserEmpty(w *tlcodec.Writer, id int64) {
	w.PutUint32(idUserEmpty)
	w.PutInt64(id)
}

func TestDecodeMessagesPageSlice(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(128)
	w.PutUint32(idMessagesMessagesSlice)
	w.PutInt32(0)   // flags: no next_rate, no offset_id_offset
	w.PutInt32(120) // total count
	w.VectorHeader(2)
	encodeFixtureMessage(w, 55, 7, "hi")
	encodeFixtureMessage(w, 54, 7, "there")
	w.VectorHeader(0) // chats
	w.VectorHeader(1) // users
	encodeFixtureUserEmpty(w, 7)

	page, err := DecodeMessagesPage(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMessagesPage() error = %v", err)
	}
	if !page.HasCount || page.Count != 120 {
		t.Fatalf("page.Count = (%d, %v), want (120, true)", page.Count, page.HasCount)
	}
	if len(page.Messages) != 2 || page.Messages[0].ID != 55 || page.Messages[0].Text != "hi" {
		t.Fatalf("page.Messages = %+v", page.Messages)
	}
	if len(page.Users) != 1 || page.Users[0].ID != 7 {
		t.Fatalf("page.Users = %+v", page.Users)
	}
	if len(page.Chats) != 0 {
		t.Fatalf("page.Chats = %+v, want empty", page.Chats)
	}
}

func TestDecodeMessagesPageNotModified(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(8)
	w.PutUint32(idMessagesMessagesNotModified)
	w.PutInt32(42)

	page, err := DecodeMessagesPage(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMessagesPage() error = %v", err)
	}
	if !page.HasCount || page.Count != 42 || len(page.Messages) != 0 {
		t.Fatalf("page = %+v, want only Count=42", page)
	}
}

func TestDecodeMessagesPageUnpaginated(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(64)
	w.PutUint32(idMessagesMessages)
	w.VectorHeader(1)
	encodeFixtureMessage(w, 1, 2, "solo")
	w.VectorHeader(0) // chats
	w.VectorHeader(0) // users

	page, err := DecodeMessagesPage(tlcodec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMessagesPage() error = %v", err)
	}
	if page.HasCount {
		t.Fatal("page.HasCount = true for an unpaginated messages.messages response")
	}
	if len(page.Messages) != 1 || page.Messages[0].Text != "solo" {
		t.Fatalf("page.Messages = %+v", page.Messages)
	}
}

func TestDecodeMessagesPageRejectsUnknownConstructor(t *testing.T) {
	t.Parallel()

	w := tlcodec.NewWriter(4)
	w.PutUint32(0xdeadbeef)
	if _, err := DecodeMessagesPage(tlcodec.NewReader(w.Bytes())); err == nil {
		t.Fatal("DecodeMessagesPage() with an unknown constructor = nil error, want one")
	}
}
