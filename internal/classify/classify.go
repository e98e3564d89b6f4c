package classify

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Kind identifies what a candidate file was recognized as.
type Kind string

const (
	KindProjectFile    Kind = "project_file"
	KindProjectArchive Kind = "project_archive"
	KindKeywordMatch   Kind = "keyword_match"
	KindNone           Kind = "none"
)

// Subdir returns the output subdirectory a kind's matches are copied under.
func (k Kind) Subdir() string {
	switch k {
	case KindProjectFile:
		return "ProjectFiles"
	case KindProjectArchive:
		return "ProjectArchives"
	case KindKeywordMatch:
		return "KeywordMatches"
	default:
		return ""
	}
}

// Basis records which signal produced a classification.
type Basis string

const (
	BasisExtension   Basis = "extension"
	BasisHeader      Basis = "header"
	BasisKeyword     Basis = "keyword"
	BasisCombination Basis = "combination"
	BasisNone        Basis = ""
)

const (
	// ProjectExt is the Ableton Live Set extension.
	ProjectExt = ".als"
	// ArchiveExt is the Ableton Live Pack/Project archive extension.
	ArchiveExt = ".alp"
)

// Format signatures checked against the sniffed header prefix. Uncompressed
// Live sets are XML documents; packs and compressed sets are ZIP containers.
var (
	xmlDeclaration = []byte("<?xml")
	abletonMarker  = []byte("<Ableton")
	zipSignature   = []byte("PK\x03\x04")
)

// Result is the immutable outcome of classifying one candidate path.
type Result struct {
	Path  string
	Kind  Kind
	Basis Basis
}

// Classifier decides what a candidate file is from its name, an optional
// header prefix, and the configured keyword set. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	keywords *KeywordSet
}

// New constructs a classifier over the given keywords. An empty keyword list
// disables keyword matching.
func New(keywords []string) *Classifier {
	return &Classifier{keywords: NewKeywordSet(keywords)}
}

// NeedsHeader reports whether the extension alone cannot decide a
// project-file or archive classification for path, so the caller should sniff
// header bytes before calling Classify. Keeping the header read lazy means
// files with a recognized extension are never opened twice.
func (c *Classifier) NeedsHeader(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ProjectExt, ArchiveExt:
		return false
	default:
		return true
	}
}

// Classify returns the classification for path given an optional header
// prefix. A nil header restricts the decision to extension and keyword
// signals. Precedence: project file, then project archive, then keyword
// match, then none.
func (c *Classifier) Classify(path string, header []byte) Result {
	ext := strings.ToLower(filepath.Ext(path))
	headerXML := len(header) > 0 && (bytes.HasPrefix(header, xmlDeclaration) || bytes.Contains(header, abletonMarker))
	headerZIP := bytes.HasPrefix(header, zipSignature)

	switch ext {
	case ProjectExt:
		basis := BasisExtension
		if headerXML || headerZIP {
			basis = BasisCombination
		}
		return Result{Path: path, Kind: KindProjectFile, Basis: basis}
	case ArchiveExt:
		basis := BasisExtension
		if headerZIP {
			basis = BasisCombination
		}
		return Result{Path: path, Kind: KindProjectArchive, Basis: basis}
	}

	// Header signals outrank keyword matches: a renamed set or pack is still
	// a project file regardless of what its name happens to contain.
	if headerXML || headerZIP {
		return Result{Path: path, Kind: KindProjectFile, Basis: BasisHeader}
	}

	if c.keywords.Match(filepath.Base(path)) {
		return Result{Path: path, Kind: KindKeywordMatch, Basis: BasisKeyword}
	}

	return Result{Path: path, Kind: KindNone, Basis: BasisNone}
}
