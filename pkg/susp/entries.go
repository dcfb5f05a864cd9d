package susp

import (
	"io"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/rockridge"
	"github.com/go-logr/logr"
)

// CollectEntries parses the System Use field of a directory record and
// follows any CE continuation areas it finds, reading the continuation
// blocks through reader. Each distinct continuation block location is
// visited at most once, and the total number of continuations followed is
// capped by opts.MaxContinuations, guarding against a pathological or
// adversarial image chaining CE records into a cycle (spec.md §9
// "Continuation chains").
func CollectEntries(initial []byte, reader io.ReaderAt, opts options.Options, log logr.Logger) ([]Entry, error) {
	entries, err := ParseEntries(initial, log)
	if err != nil {
		return nil, err
	}

	visited := make(map[uint32]bool)
	followed := 0

	for i := 0; i < len(entries); i++ {
		if entries[i].Signature != string(rockridge.SigCE) {
			continue
		}

		ce, err := rockridge.UnmarshalContinuationEntry(entries[i].Payload, opts.Logger, opts.BigEndianPreferred)
		if err != nil {
			return nil, err
		}

		if visited[ce.BlockLocation] {
			return nil, isoerr.New(isoerr.KindInvalidFS, "circular CE continuation chain detected")
		}
		followed++
		if followed > opts.MaxContinuations {
			return nil, isoerr.Newf(isoerr.KindInvalidFS, "CE continuation chain exceeds the configured limit of %d", opts.MaxContinuations)
		}
		visited[ce.BlockLocation] = true

		buf := make([]byte, ce.Length)
		readOffset := int64(ce.BlockLocation)*int64(consts.ISO9660_SECTOR_SIZE) + int64(ce.Offset)
		if _, err := reader.ReadAt(buf, readOffset); err != nil {
			return nil, isoerr.Wrap(isoerr.KindIO, err)
		}

		log.V(logging.LEVEL_TRACE).Info("following CE continuation area", "block", ce.BlockLocation, "length", ce.Length)

		more, err := ParseEntries(buf, log)
		if err != nil {
			return nil, err
		}
		entries = append(entries, more...)
	}

	return entries, nil
}
