package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Broker record form: key is the send time, headers carry the position and
// sender, value is the raw chunk.
func Encode(segment Segment) (key []byte, headers []Header, value []byte) {
	segCount := make([]byte, lenSegCount)
	binary.BigEndian.PutUint64(segCount, segment.SegCount)

	segNum := make([]byte, lenSegNum)
	binary.BigEndian.PutUint64(segNum, segment.SegNum)

	key = []byte(segment.SendTime)
	headers = []Header{
		{Key: HeaderSegCount, Value: segCount},
		{Key: HeaderSegNum, Value: segNum},
		{Key: HeaderSender, Value: []byte(segment.Sender)},
	}
	value = segment.Payload
	return
}

// Parses a broker record. All failures wrap ErrTransport.
func Decode(key []byte, headers []Header, value []byte) (segment Segment, err error) {
	if len(key) == 0 {
		err = fmt.Errorf("%w: record has no key", ErrTransport)
		return
	}
	segment.SendTime = string(key)
	if _, err = ParseSendTime(segment.SendTime); err != nil {
		err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}

	var seenCount, seenNum, seenSender bool
	for _, header := range headers {
		switch header.Key {
		case HeaderSegCount:
			segment.SegCount, err = readUint(header)
			seenCount = true
		case HeaderSegNum:
			segment.SegNum, err = readUint(header)
			seenNum = true
		case HeaderSender:
			if !utf8.Valid(header.Value) {
				err = fmt.Errorf("%w: sender header is not valid utf-8", ErrTransport)
			}
			segment.Sender = string(header.Value)
			seenSender = true
		}
		if err != nil {
			return
		}
	}
	if !seenCount || !seenNum || !seenSender {
		err = fmt.Errorf("%w: missing header (seg_count=%t seg_num=%t sender=%t)",
			ErrTransport, seenCount, seenNum, seenSender)
		return
	}

	segment.Payload = value
	if err = segment.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}
	return
}

func readUint(header Header) (number uint64, err error) {
	if len(header.Value) != lenSegCount {
		err = fmt.Errorf("%w: header %s has length %d, expected %d",
			ErrTransport, header.Key, len(header.Value), lenSegCount)
		return
	}
	number = binary.BigEndian.Uint64(header.Value)
	return
}
