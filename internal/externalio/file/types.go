package file

import (
	"io"
	"sync"
)

type OutModule struct {
	mu          sync.Mutex
	sink        io.WriteCloser
	batchBuffer []line
	batchSize   int
}

type line struct {
	timestamp string // sortable RFC3339 prefix
	text      string
}
