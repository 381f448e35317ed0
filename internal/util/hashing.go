package util

import (
	"crypto/sha256"
	"strconv"
)

// HashVector hashes the shortest exact text form of every component.
func HashVector(vec []float64) [32]byte {
	buffer := GetBytesBuffer()
	defer PutBytesBuffer(buffer)
	defer buffer.Reset()
	for i := range vec {
		buffer.WriteString(strconv.FormatFloat(vec[i], 'g', -1, 64))
		buffer.WriteByte('|')
	}
	return sha256.Sum256(buffer.Bytes())
}
