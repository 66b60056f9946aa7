package log

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// LogEvent represents a single structured logging event. It provides a
// fluent API for adding key-value pairs and handles the lifecycle of a
// log message from creation to appender output.
type LogEvent struct {
	buf    *bytes.Buffer // Buffer accumulating the formatted entry
	logger Logger        // Parent logger for routing and pooling
	level  Level         // Severity of this event
}

// newEvent creates a LogEvent with a pre-allocated buffer. Used internally
// by the logger's object pool.
func newEvent(l Logger) *LogEvent {
	e := &LogEvent{
		logger: l,
		level:  DebugLevel,
	}

	if e.buf == nil {
		e.buf = &bytes.Buffer{}
	}

	if e.buf.Cap() == 0 {
		e.buf.Grow(1024)
	}
	return e
}

// Reset prepares the LogEvent for reuse: clears accumulated data, resets
// the level, and opens a fresh JSON object. Called when events come back
// out of the pool so no state leaks between entries.
func (e *LogEvent) Reset() {
	e.buf.Reset()
	e.level = DebugLevel

	if e.buf.Cap() > 4096 {
		e.buf.Grow(1024)
	}

	AppendBeginMarker(e.buf)
}

// Time appends a timestamp field formatted as YYYY-MM-DD HH:MM:SS.000.
// Formatting is done into a stack buffer to keep the hot path free of
// allocations.
func (e *LogEvent) Time(k string, v *time.Time) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)

	y := v.Year()
	mo := int(v.Month())
	d := v.Day()
	h := v.Hour()
	m := v.Minute()
	s := v.Second()
	ms := v.Nanosecond() / 1000000

	const timeLen = 23
	var timeBuf [timeLen]byte

	timeBuf[0] = byte('0' + y/1000)
	timeBuf[1] = byte('0' + (y/100)%10)
	timeBuf[2] = byte('0' + (y/10)%10)
	timeBuf[3] = byte('0' + y%10)
	timeBuf[4] = '-'
	timeBuf[5] = byte('0' + mo/10)
	timeBuf[6] = byte('0' + mo%10)
	timeBuf[7] = '-'
	timeBuf[8] = byte('0' + d/10)
	timeBuf[9] = byte('0' + d%10)
	timeBuf[10] = ' '
	timeBuf[11] = byte('0' + h/10)
	timeBuf[12] = byte('0' + h%10)
	timeBuf[13] = ':'
	timeBuf[14] = byte('0' + m/10)
	timeBuf[15] = byte('0' + m%10)
	timeBuf[16] = ':'
	timeBuf[17] = byte('0' + s/10)
	timeBuf[18] = byte('0' + s%10)
	timeBuf[19] = '.'
	timeBuf[20] = byte('0' + ms/100)
	timeBuf[21] = byte('0' + (ms/10)%10)
	timeBuf[22] = byte('0' + ms%10)

	e.buf.WriteByte('"')
	e.buf.Write(timeBuf[:])
	e.buf.WriteByte('"')

	return e
}

// Int appends an integer field.
func (e *LogEvent) Int(k string, v int) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendInt(e.buf, v)

	return e
}

// Ints appends an integer array field.
func (e *LogEvent) Ints(k string, v []int) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendInts(e.buf, v)

	return e
}

// Int64 appends an int64 field.
func (e *LogEvent) Int64(k string, v int64) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendInt64(e.buf, v)
	return e
}

// Int64s appends an int64 array field.
func (e *LogEvent) Int64s(k string, v []int64) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendInt64s(e.buf, v)
	return e
}

// Uint16 appends a uint16 field. Fragment indices and counts log through
// this.
func (e *LogEvent) Uint16(k string, v uint16) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendUint16(e.buf, v)
	return e
}

// Uint32 appends a uint32 field. Message ids log through this.
func (e *LogEvent) Uint32(k string, v uint32) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendUint32(e.buf, v)
	return e
}

// Uint64 appends a uint64 field.
func (e *LogEvent) Uint64(k string, v uint64) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendUint64(e.buf, v)
	return e
}

// Uint64s appends a uint64 array field.
func (e *LogEvent) Uint64s(k string, v []uint64) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendUint64s(e.buf, v)
	return e
}

// Float64 appends a float64 field.
func (e *LogEvent) Float64(k string, v float64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendFloat64(e.buf, v)
	return e
}

// Bool appends a boolean field.
func (e *LogEvent) Bool(k string, v bool) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendBool(e.buf, v)
	return e
}

// Bools appends a boolean array field.
func (e *LogEvent) Bools(k string, v []bool) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendBools(e.buf, v)
	return e
}

// Hex appends a byte slice as a lowercase hex string field. The natural
// encoding for pubkeys, discriminators, and raw datagram prefixes.
func (e *LogEvent) Hex(k string, v []byte) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendHex(e.buf, v)
	return e
}

// Caller adds caller information (file, function, line) to the event.
func (e *LogEvent) Caller(file string, function string, line int) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, "caller")
	e.buf.WriteByte('"')
	e.buf.WriteString(file)
	e.buf.WriteString(".")
	e.buf.WriteString(function)
	e.buf.WriteByte(':')
	e.buf.WriteString(strconv.Itoa(line))
	e.buf.WriteByte('"')

	return e
}

// Str appends a string field.
func (e *LogEvent) Str(k string, s string) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendString(e.buf, s)
	return e
}

// Strs appends a string array field.
func (e *LogEvent) Strs(k string, v []string) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	AppendStrings(e.buf, v)
	return e
}

// Err appends an error field, logging nil errors as null.
func (e *LogEvent) Err(v error) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, "error")
	if v != nil {
		AppendString(e.buf, v.Error())
	} else {
		AppendNil(e.buf)
	}
	return e
}

// Errs appends multiple error fields, handling nil values appropriately.
func (e *LogEvent) Errs(v []error) *LogEvent {
	for _, err := range v {
		_ = e.Err(err)
	}
	return e
}

// LogObjectMarshaler allows custom objects to control their own log
// serialization. Objects implementing this interface can be passed to Obj.
type LogObjectMarshaler interface {
	MarshalLogObj(e *LogEvent)
}

// Obj appends a custom object that implements LogObjectMarshaler.
func (e *LogEvent) Obj(k string, v LogObjectMarshaler) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)
	if v == nil {
		AppendNil(e.buf)
	} else {
		v.MarshalLogObj(e)
	}
	return e
}

// Any appends an arbitrary value via encoding/json. Slow path; prefer the
// typed methods on hot code.
func (e *LogEvent) Any(k string, v any) *LogEvent {
	if e == nil {
		return nil
	}

	AppendKey(e.buf, k)

	b, err := json.Marshal(v)
	if err != nil {
		AppendString(e.buf, err.Error())
	} else {
		AppendString(e.buf, string(b))
	}

	return e
}

// Msg adds the final message to the event and triggers output. This is
// the terminal method of the fluent chain.
func (e *LogEvent) Msg(v string) {
	if e == nil {
		return
	}
	e.Str("msg", v)
	e.End()
}

// End finalizes the event and sends it to all configured appenders.
// Typically called by Msg() but usable directly for custom formatting.
func (e *LogEvent) End() {
	if e == nil {
		return
	}

	AppendEndMarker(e.buf)

	AppendLineBreak(e.buf)

	// Return the event to the object pool for reuse
	e.logger.OnEventEnd(e)
}
