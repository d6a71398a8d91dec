package directus

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// cacheEntry holds HTTP cache metadata for a single request URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// diskCache stores the last successful response per request so that
// conditional requests can be made and a stale copy served on failure.
type diskCache struct {
	dir string
}

// pathFor returns the cache directory of a request. The token takes part in
// the key so preview responses never leak into public reads.
func (d *diskCache) pathFor(rawURL, token string) string {
	sum := blake3.Sum256([]byte(rawURL + "\x00" + token))
	// First 16 bytes are plenty for a directory name.
	return filepath.Join(d.dir, hex.EncodeToString(sum[:16]))
}

func (d *diskCache) load(path string) (cacheEntry, []byte) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(path, "meta.json"))
	if err != nil {
		return cacheEntry{}, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, nil
	}
	compressed, err := os.ReadFile(filepath.Join(path, "body.zst"))
	if err != nil {
		return cacheEntry{}, nil
	}
	body, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return cacheEntry{}, nil
	}
	return meta, body
}

func (d *diskCache) save(path string, meta cacheEntry, body []byte) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return err
	}
	if encoder == nil {
		return errors.New("zstd encoder unavailable")
	}

	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(path, "body.zst"), encoder.EncodeAll(body, nil), 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, "meta.json"), data, 0o600)
}
