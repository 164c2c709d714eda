package mongodb

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"

	"github.com/felixgeelhaar/cacheman-mongo/domain/cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// binaryPayload extracts the raw bytes of a binary value. Only binary
// payloads are subject to compression; structured values are stored as-is
// even when compression is enabled.
func binaryPayload(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case primitive.Binary:
		return b.Data, true
	default:
		return nil, false
	}
}

// compress gzips a binary payload.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompress gunzips a stored payload. A failure here means the stored
// blob is corrupt and is surfaced as cache.ErrCorruptValue.
func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(cache.ErrCorruptValue, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(cache.ErrCorruptValue, err)
	}
	if err := r.Close(); err != nil {
		return nil, errors.Join(cache.ErrCorruptValue, err)
	}

	return out, nil
}
