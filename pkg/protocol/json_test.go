package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestByteArrayUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []byte
		expectErr bool
	}{
		{"integer array", `[104,0,105,0]`, []byte{104, 0, 105, 0}, false},
		{"empty array", `[]`, []byte{}, false},
		{"base64 string", `"aGk="`, []byte("hi"), false},
		{"null", `null`, nil, false},
		{"out of range", `[256]`, nil, true},
		{"negative", `[-1]`, nil, true},
		{"bad base64", `"%%%"`, nil, true},
		{"object", `{}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ByteArray
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentFormLegacyBody(t *testing.T) {
	body := `{"send_time":"1700000000000","payload":[1,2],"seg_count":3,"seg_num":1,"sender":"svc"}`

	var form SegmentForm
	if err := json.Unmarshal([]byte(body), &form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segment, err := form.Segment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segment.SegCount != 3 || segment.SegNum != 1 || !bytes.Equal(segment.Payload, []byte{1, 2}) {
		t.Fatalf("unexpected segment %+v", segment)
	}

	out, err := json.Marshal(NewSegmentForm(segment))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != body {
		t.Fatalf("re-encoded body differs:\n got %s\nwant %s", out, body)
	}
}

func TestNewDeliveryForm(t *testing.T) {
	utf16, err := EncodeText("héllo", EncodingUTF16LE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		msg       Message
		encoding  string
		want      string
		expectErr bool
	}{
		{"utf16le", Message{Payload: utf16, Sender: "a", SendTime: "1"}, EncodingUTF16LE, "héllo", false},
		{"utf8", Message{Payload: []byte("plain"), Sender: "a", SendTime: "1"}, EncodingUTF8, "plain", false},
		{"base64", Message{Payload: []byte("hi")}, EncodingBase64, "aGk=", false},
		{"failure marker skips decode", Message{HasError: true, Payload: []byte{1}}, EncodingUTF16LE, "", false},
		{"odd utf16", Message{Payload: []byte{1, 2, 3}}, EncodingUTF16LE, "", true},
		{"surrogate pair", Message{Payload: []byte{0x3d, 0xd8, 0x00, 0xde}}, EncodingUTF16LE, "\U0001F600", false},
		{"lone high surrogate", Message{Payload: []byte{'a', 0, 0x3d, 0xd8}}, EncodingUTF16LE, "", true},
		{"high surrogate without low", Message{Payload: []byte{0x3d, 0xd8, 'a', 0}}, EncodingUTF16LE, "", true},
		{"lone low surrogate", Message{Payload: []byte{0x00, 0xde, 'a', 0}}, EncodingUTF16LE, "", true},
		{"invalid utf8", Message{Payload: []byte{0xff}}, EncodingUTF8, "", true},
		{"unknown encoding", Message{Payload: []byte("x")}, "ebcdic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := NewDeliveryForm(tt.msg, tt.encoding)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", form)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if form.Payload != tt.want || form.HasError != tt.msg.HasError {
				t.Fatalf("got %+v, want payload %q", form, tt.want)
			}
		})
	}
}
