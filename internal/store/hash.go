package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
)

// DomainConfig prefixes configuration digests. The version suffix allows a
// future change of algorithm.
const DomainConfig = "kiln/config/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigHash digests a set of configuration files keyed by path. The digest
// does not depend on map order; each entry is framed by its lengths so
// path/content boundaries cannot shift.
func ConfigHash(files map[string][]byte) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf []byte
	for _, p := range paths {
		buf = fmt.Appendf(buf, "%d:%s%d:", len(p), p, len(files[p]))
		buf = append(buf, files[p]...)
	}
	return hashWithDomain(DomainConfig, buf)
}

// HashFiles reads paths and returns their ConfigHash.
func HashFiles(paths []string) (string, error) {
	files := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("hash config: %w", err)
		}
		files[p] = data
	}
	return ConfigHash(files), nil
}
