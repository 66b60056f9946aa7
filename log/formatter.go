package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// AppendBeginMarker inserts a map start character '{' into the buffer,
// opening a JSON object for one log entry.
func AppendBeginMarker(buf *bytes.Buffer) {
	buf.WriteByte('{')
}

// AppendEndMarker inserts a map end character '}' into the buffer,
// closing the JSON object for one log entry.
func AppendEndMarker(buf *bytes.Buffer) {
	buf.WriteByte('}')
}

// AppendKey appends a new key to the output JSON, inserting a comma
// separator when the object already holds fields.
func AppendKey(buf *bytes.Buffer, key string) {
	if buf.Len() >= 1 && buf.Bytes()[buf.Len()-1] != '{' {
		buf.WriteByte(',')
	}
	AppendString(buf, key)
	buf.WriteByte(':')
}

// AppendNil inserts a JSON 'null' value into the buffer.
func AppendNil(buf *bytes.Buffer) {
	buf.WriteString("null")
}

// AppendLineBreak appends a newline, terminating one log entry.
func AppendLineBreak(buf *bytes.Buffer) {
	buf.WriteByte('\n')
}

// AppendBool appends the JSON representation of a boolean value.
func AppendBool(buf *bytes.Buffer, val bool) {
	buf.WriteString(strconv.FormatBool(val))
}

// AppendBools encodes []bool to a JSON array.
func AppendBools(buf *bytes.Buffer, vals []bool) {
	if len(vals) == 0 {
		buf.WriteString("[]")
		return
	}

	buf.WriteByte('[')
	buf.WriteString(strconv.FormatBool(vals[0]))
	for i := 1; i < len(vals); i++ {
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatBool(vals[i]))
	}
	buf.WriteByte(']')
}

// AppendInt converts int to string and appends to buffer.
func AppendInt(buf *bytes.Buffer, val int) {
	buf.WriteString(strconv.FormatInt(int64(val), 10))
}

// AppendInts encodes []int to JSON array.
func AppendInts(buf *bytes.Buffer, vals []int) {
	if len(vals) == 0 {
		buf.WriteString("[]")
		return
	}

	buf.WriteByte('[')
	buf.WriteString(strconv.FormatInt(int64(vals[0]), 10))
	for i := 1; i < len(vals); i++ {
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatInt(int64(vals[i]), 10))
	}
	buf.WriteByte(']')
}

// AppendInt64 converts int64 to string and appends to buffer.
func AppendInt64(buf *bytes.Buffer, val int64) {
	buf.WriteString(strconv.FormatInt(val, 10))
}

// AppendInt64s encodes []int64 to JSON array.
func AppendInt64s(buf *bytes.Buffer, vals []int64) {
	if len(vals) == 0 {
		buf.WriteString("[]")
		return
	}

	buf.WriteByte('[')
	buf.WriteString(strconv.FormatInt(vals[0], 10))
	for i := 1; i < len(vals); i++ {
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatInt(vals[i], 10))
	}
	buf.WriteByte(']')
}

// AppendUint16 converts uint16 to string and appends to buffer.
func AppendUint16(buf *bytes.Buffer, val uint16) {
	buf.WriteString(strconv.FormatUint(uint64(val), 10))
}

// AppendUint32 converts uint32 to string and appends to buffer.
func AppendUint32(buf *bytes.Buffer, val uint32) {
	buf.WriteString(strconv.FormatUint(uint64(val), 10))
}

// AppendUint64 converts uint64 to string and appends to buffer.
func AppendUint64(buf *bytes.Buffer, val uint64) {
	buf.WriteString(strconv.FormatUint(val, 10))
}

// AppendUint64s encodes []uint64 to JSON array.
func AppendUint64s(buf *bytes.Buffer, vals []uint64) {
	if len(vals) == 0 {
		buf.WriteString("[]")
		return
	}

	buf.WriteByte('[')
	buf.WriteString(strconv.FormatUint(vals[0], 10))
	for i := 1; i < len(vals); i++ {
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatUint(vals[i], 10))
	}
	buf.WriteByte(']')
}

// AppendFloat64 converts float64 to string and appends to buffer.
func AppendFloat64(buf *bytes.Buffer, val float64) {
	appendFloat(buf, val, 64)
}

// AppendInterface marshals an arbitrary value to JSON and appends to buffer.
func AppendInterface(buf *bytes.Buffer, i any) {
	marshaled, err := json.Marshal(i)
	if err != nil {
		AppendString(buf, fmt.Sprintf("marshaling error: %v", err))
		return
	}
	buf.Write(marshaled)
}

// appendFloat handles special float values (NaN, Inf) and appends to buffer.
func appendFloat(buf *bytes.Buffer, val float64, bitSize int) {
	switch {
	case math.IsNaN(val):
		buf.WriteString(`"NaN"`)
		return
	case math.IsInf(val, 1):
		buf.WriteString(`"Inf"`)
		return
	case math.IsInf(val, -1):
		buf.WriteString(`"-Inf"`)
		return
	}
	buf.WriteString(strconv.FormatFloat(val, 'f', -1, bitSize))
}

const _hex = "0123456789abcdef"

var _noEscapeTable = [256]bool{}

func init() {
	for i := 0; i <= 0x7e; i++ {
		_noEscapeTable[i] = i >= 0x20 && i != '\\' && i != '"'
	}
}

// AppendHex encodes the bytes as a lowercase hex JSON string. Used for
// on-chain addresses, discriminators, and other opaque binary identifiers.
func AppendHex(buf *bytes.Buffer, b []byte) {
	buf.WriteByte('"')
	for _, c := range b {
		buf.WriteByte(_hex[c>>4])
		buf.WriteByte(_hex[c&0xF])
	}
	buf.WriteByte('"')
}

// AppendStrings encodes the input strings to a JSON array.
func AppendStrings(buf *bytes.Buffer, vals []string) {
	if len(vals) == 0 {
		buf.WriteString("[]")
		return
	}

	buf.WriteByte('[')
	AppendString(buf, vals[0])
	for i := 1; i < len(vals); i++ {
		buf.WriteByte(',')
		AppendString(buf, vals[i])
	}
	buf.WriteByte(']')
}

// AppendString encodes the input string to JSON and appends to buffer.
//
// The fast path scans for characters needing JSON or UTF-8 escaping; a
// string without any is appended in one write.
func AppendString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')

	for i := 0; i < len(s); i++ {
		if !_noEscapeTable[s[i]] {
			appendStringComplex(buf, s)
			buf.WriteByte('"')
			return
		}
	}

	buf.WriteString(s)
	buf.WriteByte('"')
}

// appendStringComplex handles string encoding for characters that need escaping.
func appendStringComplex(buf *bytes.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				// Invalid UTF-8 sequence
				if start < i {
					buf.WriteString(s[start:i])
				}
				buf.WriteString("\\ufffd")
				i += size - 1
				start = i + 1
				continue
			}
			i += size - 1
			continue
		}

		if _noEscapeTable[b] {
			continue
		}

		if start < i {
			buf.WriteString(s[start:i])
		}

		switch b {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			// Control characters
			buf.WriteString(`\u00`)
			buf.WriteByte(_hex[b>>4])
			buf.WriteByte(_hex[b&0xF])
		}
		start = i + 1
	}

	if start < len(s) {
		buf.WriteString(s[start:])
	}
}
