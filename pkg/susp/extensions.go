package susp

import (
	"strings"
	"time"

	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/rockridge"
	"github.com/go-logr/logr"
)

// ExtraMeta is the aggregated result of folding a directory record's SUSP
// entries (its own plus any CE continuations) into the Rock Ridge metadata
// spec.md §4.4 defines: an alternate name, POSIX attributes, timestamps, a
// symbolic link target, directory-relocation bookkeeping, and the set of
// extensions the volume advertises.
type ExtraMeta struct {
	AltName       string
	HasAltName    bool
	Attributes    *rockridge.PosixAttributes
	Timestamps    *rockridge.Timestamps
	SymlinkTarget string
	IsSymlink     bool
	ChildLink     *uint32
	Relocated     bool
	Extensions    map[rockridge.Extension]bool
	RockRidge     bool
}

// Aggregate folds a flat list of SUSP entries (already expanded across any
// CE continuations by CollectEntries) into an ExtraMeta. NM and SL entries
// may each be split across a chain of records joined by their own
// continuation flag; both chains are reassembled here per spec.md §4.4.
func Aggregate(entries []Entry, opts options.Options, log logr.Logger) (*ExtraMeta, error) {
	meta := &ExtraMeta{Extensions: make(map[rockridge.Extension]bool)}

	var nameBuilder strings.Builder
	nameContinuing := false
	nameLinks := 0
	sawName := false

	var symlinkComponents []rockridge.SymlinkComponent
	symlinkContinuing := false
	symlinkLinks := 0
	sawSymlink := false

	for _, e := range entries {
		switch e.Signature {
		case string(rockridge.SigSP):
			if err := rockridge.ValidateSuspIndicator(e.Payload); err != nil {
				return nil, err
			}
			meta.RockRidge = true

		case string(rockridge.SigER):
			rec, _, err := rockridge.UnmarshalExtensionRecord(e.Payload)
			if err != nil {
				return nil, err
			}
			if ext, ok := rockridge.ResolveExtension(rec); ok {
				meta.Extensions[ext] = true
				meta.RockRidge = true
			} else if !opts.LenientExtensions {
				log.V(logging.LEVEL_TRACE).Info("unrecognised SUSP extension reference",
					"identifier", rec.Identifier, "version", rec.Version)
			}

		case string(rockridge.SigRR):
			if _, err := rockridge.UnmarshalRockRidgeHintEntry(e.Payload); err != nil {
				return nil, err
			}
			meta.RockRidge = true

		case string(rockridge.SigNM):
			flags, name, err := rockridge.UnmarshalNameEntry(e.Payload)
			if err != nil {
				return nil, err
			}
			meta.RockRidge = true
			switch {
			case flags.Has(rockridge.NameCurrent):
				nameBuilder.Reset()
				nameBuilder.WriteString(".")
				sawName = true
			case flags.Has(rockridge.NameParent):
				nameBuilder.Reset()
				nameBuilder.WriteString("..")
				sawName = true
			default:
				if !nameContinuing {
					nameBuilder.Reset()
					nameLinks = 0
				} else if nameLinks++; nameLinks > opts.MaxContinuations {
					return nil, isoerr.Newf(isoerr.KindInvalidFS, "NM continuation chain exceeds the configured limit of %d", opts.MaxContinuations)
				}
				nameBuilder.WriteString(name)
				sawName = true
			}
			nameContinuing = flags.Has(rockridge.NameContinue)

		case string(rockridge.SigPX):
			attrs, err := rockridge.UnmarshalPosixEntry(e.Payload, log, opts.BigEndianPreferred)
			if err != nil {
				return nil, err
			}
			if meta.Attributes != nil {
				log.V(logging.LEVEL_TRACE).Info("duplicate PX entry for directory record, keeping the later one")
			}
			meta.Attributes = attrs
			meta.RockRidge = true

		case string(rockridge.SigTF):
			_, ts, err := rockridge.UnmarshalTimestampEntry(e.Payload)
			if err != nil {
				return nil, err
			}
			meta.Timestamps = mergeTimestamps(meta.Timestamps, ts, log)
			meta.RockRidge = true

		case string(rockridge.SigSL):
			shouldContinue, components, err := rockridge.UnmarshalSymlinkEntry(e.Payload)
			if err != nil {
				return nil, err
			}
			if !symlinkContinuing {
				symlinkComponents = nil
				symlinkLinks = 0
			} else if symlinkLinks++; symlinkLinks > opts.MaxContinuations {
				return nil, isoerr.Newf(isoerr.KindInvalidFS, "SL continuation chain exceeds the configured limit of %d", opts.MaxContinuations)
			}
			symlinkComponents = append(symlinkComponents, components...)
			symlinkContinuing = shouldContinue
			sawSymlink = true
			meta.RockRidge = true

		case string(rockridge.SigCL):
			lba, err := rockridge.UnmarshalChildLinkEntry(e.Payload, log, opts.BigEndianPreferred)
			if err != nil {
				return nil, err
			}
			meta.ChildLink = &lba
			meta.RockRidge = true

		case string(rockridge.SigRE):
			meta.Relocated = true
			meta.RockRidge = true

		case string(rockridge.SigCE):
			// Already expanded by CollectEntries; nothing to aggregate.

		default:
			// Unknown signature: SUSP requires tolerating unrecognised
			// records rather than failing the whole directory record.
		}
	}

	if sawName {
		meta.AltName = nameBuilder.String()
		meta.HasAltName = true
	}
	if sawSymlink {
		meta.SymlinkTarget = rockridge.JoinSymlinkComponents(symlinkComponents)
		meta.IsSymlink = true
	}

	return meta, nil
}

func mergeTimestamps(dst, src *rockridge.Timestamps, log logr.Logger) *rockridge.Timestamps {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = &rockridge.Timestamps{}
	}

	merge := func(name string, d **time.Time, s *time.Time) {
		if s == nil {
			return
		}
		if *d != nil {
			log.V(logging.LEVEL_TRACE).Info("duplicate TF timestamp field across entries", "field", name)
		}
		*d = s
	}

	merge("creation", &dst.Creation, src.Creation)
	merge("modify", &dst.Modify, src.Modify)
	merge("access", &dst.Access, src.Access)
	merge("attributes", &dst.Attributes, src.Attributes)
	merge("backup", &dst.Backup, src.Backup)
	merge("expiration", &dst.Expiration, src.Expiration)
	merge("effective", &dst.Effective, src.Effective)

	return dst
}
