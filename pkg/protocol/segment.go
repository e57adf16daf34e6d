// Splitting outbound payloads into segments and joining them back together
package protocol

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Creates segments of at most chunkByteSize payload bytes each.
// An empty payload still produces a single empty segment so the group can complete.
func Split(msg OutboundMessage, chunkByteSize int) (segments []Segment, err error) {
	if chunkByteSize <= 0 {
		err = fmt.Errorf("chunk byte size must be greater than 0, got %d", chunkByteSize)
		return
	}
	if msg.SendTime == "" {
		err = fmt.Errorf("send time must not be empty")
		return
	}
	if _, err = ParseSendTime(msg.SendTime); err != nil {
		return
	}
	if len(msg.Sender) > maxSenderLen {
		err = fmt.Errorf("sender length %d exceeds maximum %d", len(msg.Sender), maxSenderLen)
		return
	}

	count := (len(msg.Payload) + chunkByteSize - 1) / chunkByteSize
	if count == 0 {
		count = 1
	}
	if uint64(count) > MaxSegCount {
		err = fmt.Errorf("payload of %d bytes needs %d segments, maximum is %d", len(msg.Payload), count, MaxSegCount)
		return
	}

	segments = make([]Segment, 0, count)
	remaining := msg.Payload
	for seq := 0; seq < count; seq++ {
		chunk := remaining
		if len(chunk) > chunkByteSize {
			chunk = remaining[:chunkByteSize]
		}
		remaining = remaining[len(chunk):]

		segments = append(segments, Segment{
			Payload:  bytes.Clone(chunk),
			SegCount: uint64(count),
			SegNum:   uint64(seq),
			Sender:   msg.Sender,
			SendTime: msg.SendTime,
		})
	}
	return
}

// Concatenates payloads in segment number order.
// Expects one segment per number of a single group (validated by caller).
func Join(segments []Segment) (payload []byte) {
	ordered := slices.Clone(segments)
	slices.SortFunc(ordered, func(a, b Segment) int {
		switch {
		case a.SegNum < b.SegNum:
			return -1
		case a.SegNum > b.SegNum:
			return 1
		}
		return 0
	})

	total := 0
	for _, segment := range ordered {
		total += len(segment.Payload)
	}

	payload = make([]byte, 0, total)
	for _, segment := range ordered {
		payload = append(payload, segment.Payload...)
	}
	return
}

// Current time as a send time value
func NewSendTime(now time.Time) (sendTime string) {
	sendTime = strconv.FormatInt(now.UnixMilli(), 10)
	return
}

// Parses a decimal millisecond epoch send time
func ParseSendTime(sendTime string) (sent time.Time, err error) {
	millis, err := strconv.ParseInt(sendTime, 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid send time %q: %w", sendTime, err)
		return
	}
	sent = time.UnixMilli(millis)
	return
}

// Checks structural validity of a single segment
func (segment Segment) Validate() (err error) {
	if segment.SendTime == "" {
		err = fmt.Errorf("empty send time")
		return
	}
	if _, err = ParseSendTime(segment.SendTime); err != nil {
		return
	}
	if segment.SegCount == 0 {
		err = fmt.Errorf("segment count must be at least 1")
		return
	}
	if segment.SegCount > MaxSegCount {
		err = fmt.Errorf("segment count %d exceeds maximum %d", segment.SegCount, MaxSegCount)
		return
	}
	if segment.SegNum >= segment.SegCount {
		err = fmt.Errorf("segment number %d out of range for count %d", segment.SegNum, segment.SegCount)
		return
	}
	return
}
