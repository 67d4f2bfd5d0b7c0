package updates

import "github.com/ankit-chaubey/layer/tl"

// Event is one classified update delivered to a consumer (spec §4.10
// "Classification"). Kind selects which of Update/Message is meaningful;
// a short message update carries both.
type Event struct {
	Kind    tl.UpdateKind
	Update  tl.Update
	Message *tl.IncomingMessage
}
