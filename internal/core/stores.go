package core

// BlobStore is the persistence collaborator for the board. It stores one
// opaque blob; Load returns nil bytes and no error when nothing is stored.
// Implementations live in the storage package.
type BlobStore interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// CompressionOptions tunes the compression collaborator.
type CompressionOptions struct {
	EnableValuePool  bool
	PoolMinRepeats   int
	PoolMinStringLen int
}

// DefaultCompressionOptions returns the options used when none are
// configured.
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{EnableValuePool: true, PoolMinRepeats: 2, PoolMinStringLen: 6}
}

// Compressor is the compression collaborator used at export/import
// boundaries. Implementations live in the integration package.
type Compressor interface {
	Compress(jsonText string, opts CompressionOptions) ([]byte, error)
	Decompress(data []byte) (string, error)
	// IsCompressed reports whether data carries the compressor's header.
	IsCompressed(data []byte) bool
}
