package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Byte slice whose JSON form is an array of integers (0-255).
// Unmarshal also accepts a base64 string.
type ByteArray []byte

// Splitter input body
type SplitRequest struct {
	Sender  string    `json:"sender"`
	Time    string    `json:"time"`
	Payload ByteArray `json:"payload"`
}

// Segment relay body
type SegmentForm struct {
	SendTime string    `json:"send_time"`
	Payload  ByteArray `json:"payload"`
	SegCount uint64    `json:"seg_count"`
	SegNum   uint64    `json:"seg_num"`
	Sender   string    `json:"sender"`
}

// Reassembled delivery body
type DeliveryForm struct {
	Payload  string `json:"payload"`
	HasError bool   `json:"has_error"`
	SendTime string `json:"send_time"`
	Sender   string `json:"sender"`
}

func (data ByteArray) MarshalJSON() (out []byte, err error) {
	var buf bytes.Buffer
	buf.Grow(len(data)*4 + 2)
	buf.WriteByte('[')
	for i, b := range data {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(b)))
	}
	buf.WriteByte(']')
	out = buf.Bytes()
	return
}

func (data *ByteArray) UnmarshalJSON(raw []byte) (err error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*data = nil
		return
	}

	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err = json.Unmarshal(raw, &encoded); err != nil {
			return
		}
		var decoded []byte
		decoded, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			err = fmt.Errorf("payload string is not valid base64: %w", err)
			return
		}
		*data = decoded
		return
	}

	var numbers []int
	if err = json.Unmarshal(raw, &numbers); err != nil {
		err = fmt.Errorf("payload must be a byte array or base64 string: %w", err)
		return
	}
	decoded := make([]byte, len(numbers))
	for i, number := range numbers {
		if number < 0 || number > 255 {
			err = fmt.Errorf("payload byte %d out of range: %d", i, number)
			return
		}
		decoded[i] = byte(number)
	}
	*data = decoded
	return
}

// Converts to segmenter input
func (request SplitRequest) Outbound() (msg OutboundMessage) {
	msg = OutboundMessage{
		Sender:   request.Sender,
		SendTime: request.Time,
		Payload:  []byte(request.Payload),
	}
	return
}

func NewSegmentForm(segment Segment) (form SegmentForm) {
	form = SegmentForm{
		SendTime: segment.SendTime,
		Payload:  ByteArray(segment.Payload),
		SegCount: segment.SegCount,
		SegNum:   segment.SegNum,
		Sender:   segment.Sender,
	}
	return
}

// Converts relay body to a validated segment
func (form SegmentForm) Segment() (segment Segment, err error) {
	segment = Segment{
		Payload:  []byte(form.Payload),
		SegCount: form.SegCount,
		SegNum:   form.SegNum,
		Sender:   form.Sender,
		SendTime: form.SendTime,
	}
	err = segment.Validate()
	return
}

// Builds the delivery body, decoding successful payloads with the given encoding
func NewDeliveryForm(msg Message, encoding string) (form DeliveryForm, err error) {
	form = DeliveryForm{
		HasError: msg.HasError,
		SendTime: msg.SendTime,
		Sender:   msg.Sender,
	}
	if msg.HasError {
		return
	}
	form.Payload, err = DecodePayload(msg.Payload, encoding)
	return
}
