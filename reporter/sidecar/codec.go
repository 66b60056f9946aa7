// Package sidecar streams detections to a co-located process over a
// unix domain socket. Records are protobuf wire encoded and framed with
// a fixed 8-byte head so the sidecar can consume them without sharing Go
// types.
package sidecar

import (
	"encoding/binary"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/solwatch/shredscan/reporter"
)

// Frame head layout: msgID u32 + bodySize u32, little-endian.
const (
	FrameHeadSize = 8
	// MsgIDDetection tags detection record frames.
	MsgIDDetection = 1
	// maxBodySize bounds a frame body; a record is far smaller.
	maxBodySize = 64 * 1024
)

// Record field numbers on the wire.
const (
	fieldRule         = 1
	fieldToken        = 2
	fieldBondingCurve = 3
	fieldCreator      = 4
	fieldSeq          = 5
	fieldEntryCount   = 6
	fieldTxCount      = 7
	fieldDetectedAt   = 8
)

// EncodeRecord serializes rec in protobuf wire format.
func EncodeRecord(rec *reporter.Record) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldRule, protowire.BytesType)
	buf = protowire.AppendString(buf, rec.Rule)
	buf = protowire.AppendTag(buf, fieldToken, protowire.BytesType)
	buf = protowire.AppendString(buf, rec.Token)
	buf = protowire.AppendTag(buf, fieldBondingCurve, protowire.BytesType)
	buf = protowire.AppendString(buf, rec.BondingCurve)
	buf = protowire.AppendTag(buf, fieldCreator, protowire.BytesType)
	buf = protowire.AppendString(buf, rec.Creator)
	buf = protowire.AppendTag(buf, fieldSeq, protowire.VarintType)
	buf = protowire.AppendVarint(buf, rec.Seq)
	buf = protowire.AppendTag(buf, fieldEntryCount, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(rec.EntryCount))
	buf = protowire.AppendTag(buf, fieldTxCount, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(rec.TxCount))
	buf = protowire.AppendTag(buf, fieldDetectedAt, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(rec.DetectedAt))
	return buf
}

// DecodeRecord parses a protobuf wire encoded record. Unknown fields are
// skipped so the sidecar format can grow.
func DecodeRecord(buf []byte) (*reporter.Record, error) {
	rec := &reporter.Record{}
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("bad tag: %w", protowire.ParseError(n))
		}
		buf = buf[n:]

		switch typ {
		case protowire.BytesType:
			val, n := protowire.ConsumeString(buf)
			if n < 0 {
				return nil, fmt.Errorf("bad string field %d: %w", num, protowire.ParseError(n))
			}
			buf = buf[n:]
			switch num {
			case fieldRule:
				rec.Rule = val
			case fieldToken:
				rec.Token = val
			case fieldBondingCurve:
				rec.BondingCurve = val
			case fieldCreator:
				rec.Creator = val
			}
		case protowire.VarintType:
			val, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return nil, fmt.Errorf("bad varint field %d: %w", num, protowire.ParseError(n))
			}
			buf = buf[n:]
			switch num {
			case fieldSeq:
				rec.Seq = val
			case fieldEntryCount:
				rec.EntryCount = int(val)
			case fieldTxCount:
				rec.TxCount = int(val)
			case fieldDetectedAt:
				rec.DetectedAt = int64(val)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("bad field %d: %w", num, protowire.ParseError(n))
			}
			buf = buf[n:]
		}
	}
	return rec, nil
}

// EncodeFrame prepends the frame head to body.
func EncodeFrame(msgID uint32, body []byte) []byte {
	buf := make([]byte, FrameHeadSize+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], msgID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[FrameHeadSize:], body)
	return buf
}

// DecodeFrameHead parses a frame head and validates the body size.
func DecodeFrameHead(buf []byte) (msgID uint32, bodySize uint32, err error) {
	if len(buf) < FrameHeadSize {
		return 0, 0, errors.New("frame head truncated")
	}
	msgID = binary.LittleEndian.Uint32(buf[0:4])
	bodySize = binary.LittleEndian.Uint32(buf[4:8])
	if bodySize > maxBodySize {
		return 0, 0, fmt.Errorf("frame body size %d exceeds limit", bodySize)
	}
	return msgID, bodySize, nil
}
