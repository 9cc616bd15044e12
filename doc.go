// Package recordio reads and writes recordio files: streaming containers
// that store an ordered sequence of opaque byte records with optional
// block-level compression, an optional key-value header block, an
// optional trailer block and a block-granularity seek index.
//
// Two on-disk framings coexist. The legacy framing stores self-framed
// blocks, either one record per block (unpacked) or a CRC-guarded list
// of items per block (packed). The chunked framing splits every block
// across fixed-size 32 KiB chunks with per-chunk CRC, and adds header,
// data and trailer block kinds. The reader auto-detects the framing
// from the file's leading magic; the writer emits the legacy framing.
//
// Block payloads can be rewritten by a named transformer, for example
// "flate" for raw DEFLATE compression. Transformer names resolve
// through a process-wide registry; see RegisterTransformer.
package recordio
