// Package susp implements the System Use Sharing Protocol record framing
// that carries Rock Ridge (and other) extensions inside the System Use
// field of an ISO 9660 directory record.
package susp

import (
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/go-logr/logr"
)

// Entry is one decoded SUSP record: a two-byte signature, a version byte,
// and the payload bytes following the four-byte header
// (signature + length + version).
type Entry struct {
	Signature string
	Version   byte
	Payload   []byte
}

// ParseEntries walks a System Use field (or a CE continuation area) and
// splits it into its component SUSP records. A zero byte where a signature
// is expected marks the start of padding and ends the scan; any other
// length==0 record is a hard parse failure, per spec.md §4.4.
func ParseEntries(data []byte, log logr.Logger) ([]Entry, error) {
	var entries []Entry

	for offset := 0; offset < len(data); {
		if data[offset] == 0x00 {
			break
		}

		remaining := len(data) - offset
		if remaining < 4 {
			log.V(logging.LEVEL_TRACE).Info("SUSP area ended with a short trailing fragment",
				"bytesRemaining", remaining, "offset", offset)
			break
		}

		entryLen := int(data[offset+2])
		if entryLen == 0 {
			return nil, isoerr.Newf(isoerr.KindParse, "SUSP entry at offset %d has zero length", offset)
		}
		if entryLen < 4 {
			return nil, isoerr.Newf(isoerr.KindParse, "SUSP entry length %d is smaller than the 4-byte header", entryLen)
		}
		if entryLen > remaining {
			return nil, isoerr.Newf(isoerr.KindParse, "SUSP entry length %d exceeds remaining data %d", entryLen, remaining)
		}

		entries = append(entries, Entry{
			Signature: string(data[offset : offset+2]),
			Version:   data[offset+3],
			Payload:   data[offset+4 : offset+entryLen],
		})

		offset += entryLen
	}

	return entries, nil
}
