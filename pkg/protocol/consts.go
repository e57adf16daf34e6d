package protocol

import "errors"

const (
	// Wire header names
	HeaderSegCount string = "seg_count"
	HeaderSegNum   string = "seg_num"
	HeaderSender   string = "sender"

	lenSegCount int = 8
	lenSegNum   int = 8

	// Payload encodings understood at the delivery boundary
	EncodingUTF16LE string = "utf16le"
	EncodingUTF8    string = "utf8"
	EncodingBase64  string = "base64"

	maxSenderLen int = 255

	// Upper bound on segments per group, bounds bitmap allocation from wire values
	MaxSegCount uint64 = 1 << 22
)

var (
	// Malformed or undeliverable unit at the transport boundary
	ErrTransport = errors.New("transport fault")
)
