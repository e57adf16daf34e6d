package protocol

import "time"

// Caller input to the segmenter
type OutboundMessage struct {
	Sender   string
	SendTime string // decimal millisecond epoch
	Payload  []byte
}

// One fragment of an outbound message. Not modified after creation.
type Segment struct {
	Payload  []byte
	SegCount uint64
	SegNum   uint64 // 0-indexed
	Sender   string
	SendTime string
}

// Correlation identity of one logical message
type GroupKey struct {
	Sender   string
	SendTime string
}

// Reassembled output (or terminal failure marker) for one group
type Message struct {
	Payload  []byte
	HasError bool
	Sender   string
	SendTime string
}

// Header as carried by the broker, independent of client library
type Header struct {
	Key   string
	Value []byte
}

// Group this segment belongs to
func (segment Segment) Key() (key GroupKey) {
	key = GroupKey{Sender: segment.Sender, SendTime: segment.SendTime}
	return
}

// Gets total size in memory for the segment (to include stable internal-go overheads)
func (segment Segment) Size() (bytes int) {
	bytes = len(segment.Payload) +
		len(segment.Sender) + // string backing bytes
		len(segment.SendTime) + // string backing bytes
		24 + // Payload []byte header
		8 + // SegCount
		8 + // SegNum
		16 + // Sender string header
		16 // SendTime string header
	return
}

// Time encoded in the send time. ok is false for non-numeric values.
func (key GroupKey) Time() (sent time.Time, ok bool) {
	sent, err := ParseSendTime(key.SendTime)
	ok = err == nil
	return
}

func (key GroupKey) String() string {
	return key.Sender + "@" + key.SendTime
}

// Approximate in-memory size used for queue accounting
func (msg Message) Size() (bytes int) {
	bytes = len(msg.Payload) + len(msg.Sender) + len(msg.SendTime) + 24 + 1 + 16 + 16
	return
}
