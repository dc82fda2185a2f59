package checksum

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Calculator computes dump fingerprints.
type Calculator interface {
	// CalculateRaw hashes the unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized hashes the data rows only.
	CalculateNormalized(content []byte) string
}

// SHA256 is a zero-size Calculator using SHA-256.
type SHA256 struct{}

func New() SHA256 {
	return SHA256{}
}

func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func (c SHA256) CalculateNormalized(content []byte) string {
	h := sha256.New()
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), " \t\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		h.Write(line)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
