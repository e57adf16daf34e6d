package journald

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Sanity limit for binary fields
const maxBinaryField uint64 = 10 * 1024 * 1024

// Serializes one entry in journal export format. Values containing newlines
// use the binary field form. Keys are written sorted.
// https://systemd.io/JOURNAL_EXPORT_FORMATS/#journal-export-format
func encodeEntry(fields map[string]string) (entry []byte) {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if key == "" || value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		value := fields[key]
		buf.WriteString(key)

		if strings.Contains(value, "\n") {
			buf.WriteByte('\n')
			var size [8]byte
			binary.LittleEndian.PutUint64(size[:], uint64(len(value)))
			buf.Write(size[:])
		} else {
			buf.WriteByte('=')
		}

		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	// Terminate with double newline
	buf.WriteByte('\n')

	entry = buf.Bytes()
	return
}

// Reads a journal export entry until complete entry (double newline)
func ExtractEntry(reader *bufio.Reader) (fields map[string]string, err error) {
	fields = make(map[string]string)
	for {
		var line string

		line, err = reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(fields) > 0 {
				err = fmt.Errorf("entry truncated before terminator")
			} else if err != io.EOF {
				err = fmt.Errorf("failed line read: %v", err)
			}
			return
		}
		line = strings.TrimSuffix(line, "\n")

		// End of entry when we hit empty (i.e. double newline after read + trim)
		if line == "" {
			break
		}

		// Text field
		if key, value, found := strings.Cut(line, "="); found {
			fields[key] = value
			continue
		}

		// Binary field, next 64 bits are the little-endian length
		key := line
		lenField := make([]byte, 8)
		_, err = io.ReadFull(reader, lenField)
		if err != nil {
			err = fmt.Errorf("failed binary field length read: %v", err)
			return
		}

		size := binary.LittleEndian.Uint64(lenField)
		if size > maxBinaryField {
			err = fmt.Errorf("binary field size too large: %d bytes", size)
			return
		}

		data := make([]byte, size)
		_, err = io.ReadFull(reader, data)
		if err != nil {
			err = fmt.Errorf("failed binary field value read: %v", err)
			return
		}

		// Consume exactly one newline
		b, _ := reader.ReadByte()
		if b != '\n' {
			err = fmt.Errorf("binary field missing newline")
			return
		}

		fields[key] = string(data)
	}

	if len(fields) == 0 {
		err = fmt.Errorf("encountered empty entry")
		return
	}
	return
}
