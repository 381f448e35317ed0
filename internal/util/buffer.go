package util

import (
	"bytes"
	"sync"
)

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

func GetBytesBuffer() *bytes.Buffer {
	return bytesBuffer.Get().(*bytes.Buffer)
}

func PutBytesBuffer(p *bytes.Buffer) {
	bytesBuffer.Put(p)
}
