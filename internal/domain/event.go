package domain

import "strings"

// Evolution webhook event kinds that carry a new or updated message.
// Anything else is ignored by the pipeline.
const (
	EventMessagesUpsert = "messages.upsert"
	EventMessagesUpdate = "messages.update"
)

// MessageKey identifies a message within the gateway session.
type MessageKey struct {
	RemoteJID string
	FromMe    bool
	ID        string
}

// PayloadKind tags the variant populated in a MessagePayload.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadExtendedText
	PayloadAudio
	PayloadImage
	PayloadDocument
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadExtendedText:
		return "extended_text"
	case PayloadAudio:
		return "audio"
	case PayloadImage:
		return "image"
	case PayloadDocument:
		return "document"
	default:
		return "none"
	}
}

// MessagePayload is the tagged union decoded from the webhook's message
// object. Exactly one variant is populated; when the wire form carries more
// than one key, the decoder picks the first match in the fixed priority
// order text > extended text > audio > image > document.
type MessagePayload struct {
	Kind     PayloadKind
	Text     string // PayloadText / PayloadExtendedText
	Mimetype string // attachment variants
	Caption  string
	FileName string
}

// InboundEvent is one decoded gateway notification. Constructed per webhook
// call and discarded once the pipeline completes; never persisted raw.
type InboundEvent struct {
	Event    string
	Instance string
	Key      MessageKey
	Payload  MessagePayload
}

// Actionable reports whether the event kind and origin allow a reply at all.
// Self-sent messages and unrecognized event kinds are dropped up front.
func (e InboundEvent) Actionable() bool {
	if e.Key.FromMe {
		return false
	}
	return e.Event == EventMessagesUpsert || e.Event == EventMessagesUpdate
}

// CustomerKey derives the stable per-sender identifier from the routing
// address: "5551999@s.whatsapp.net" becomes "+5551999".
func CustomerKey(remoteJID string) string {
	number, _, _ := strings.Cut(remoteJID, "@")
	return "+" + number
}

// InputKind tags how a normalized input was derived.
type InputKind int

const (
	InputNone InputKind = iota
	InputText
	InputTranscript
	InputFileNotice
)

// Input is the single canonical text derived from an inbound message. The
// agent only ever sees Input.Text; Kind records its provenance.
type Input struct {
	Kind InputKind
	Text string
}

// None reports whether the event produced no actionable input.
func (i Input) None() bool {
	return i.Kind == InputNone || strings.TrimSpace(i.Text) == ""
}
