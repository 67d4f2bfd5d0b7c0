package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the call-wrapping layer used once per reconnect to
// tag a session with client identification and negotiate a schema layer
// (spec §4.9 "tags the connection with ... client identification").
const (
	idInitConnection uint32 = 0xc1cd5ea9
	idInvokeWithLayer uint32 = 0xda9b0d0d
)

// InitConnection is initConnection#c1cd5ea9. Query already holds the
// fully-encoded inner call (internal/updates passes help.getConfig and
// wraps the whole initConnection in an InvokeWithLayer), written
// verbatim with no extra boxing: MTProto's generic !X parameter is just
// the callee's own bytes inlined at this position.
type InitConnection struct {
	APIID          int32
	DeviceModel    string
	SystemVersion  string
	AppVersion     string
	SystemLangCode string
	LangPack       string
	LangCode       string
	Query          []byte
}

// Encode serializes initConnection.
func (i InitConnection) Encode(w *tlcodec.Writer) {
	w.PutUint32(idInitConnection)
	w.PutInt32(0) // flags: none of the optional proxy/params fields are sent
	w.PutInt32(i.APIID)
	w.PutString(i.DeviceModel)
	w.PutString(i.SystemVersion)
	w.PutString(i.AppVersion)
	w.PutString(i.SystemLangCode)
	w.PutString(i.LangPack)
	w.PutString(i.LangCode)
	w.PutRaw(i.Query)
}

// InvokeWithLayer is invokeWithLayer#da9b0d0d, the outermost wrapper that
// pins the schema layer version for the wrapped call (spec §6 "layer
// negotiation"). Query is the fully-encoded inner call.
type InvokeWithLayer struct {
	Layer int32
	Query []byte
}

// Encode serializes invokeWithLayer.
func (i InvokeWithLayer) Encode(w *tlcodec.Writer) {
	w.PutUint32(idInvokeWithLayer)
	w.PutInt32(i.Layer)
	w.PutRaw(i.Query)
}

// SchemaLayer is the MTProto schema layer this client speaks, sent as
// invokeWithLayer's Layer argument on every initConnection (spec §6).
const SchemaLayer int32 = 181
