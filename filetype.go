package recordio

import "strings"

// FileType classifies a path by its recordio extension.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeRIO
	FileTypeRIOPacked
	FileTypeRIOPackedCompressed
)

// DetermineFileType maps a path to the framing variant its extension
// denotes.
func DetermineFileType(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".grail-rio"):
		return FileTypeRIO
	case strings.HasSuffix(path, ".grail-rpk"):
		return FileTypeRIOPacked
	case strings.HasSuffix(path, ".grail-rpk-gz"):
		return FileTypeRIOPackedCompressed
	default:
		return FileTypeUnknown
	}
}

// DefaultWriterOpts derives writer options from the path suffix.
func DefaultWriterOpts(path string) WriterOpts {
	var opts WriterOpts
	switch DetermineFileType(path) {
	case FileTypeRIO:
	case FileTypeRIOPacked:
		opts.Packed = true
	case FileTypeRIOPackedCompressed:
		opts.Packed = true
		opts.Transformer = FlateTransformer()
	default:
		// Punt. The writer emits unpacked untransformed blocks.
	}
	return opts
}

// DefaultReaderOpts derives reader options from the path suffix. The
// transformer matters only for legacy files; chunked files carry their
// transformer in the header.
func DefaultReaderOpts(path string) ReaderOpts {
	var opts ReaderOpts
	if DetermineFileType(path) == FileTypeRIOPackedCompressed {
		opts.Transformer = UnflateTransformer()
	}
	return opts
}
