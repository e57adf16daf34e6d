// Append-only text file output, one line per delivered message
package file

import (
	"fmt"
	"os"
)

// Lines buffered before a write to disk
const defaultBatchSize int = 20

// Creates new file output module. Returns nil nil if no path.
func NewOutput(filePath string) (module *OutModule, err error) {
	if filePath == "" {
		return
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		err = fmt.Errorf("failed to open output file: %w", err)
		return
	}

	module = &OutModule{
		sink:      file,
		batchSize: defaultBatchSize,
	}
	return
}

func (mod *OutModule) Name() string {
	return "file"
}

// Flushes remaining lines and closes the file
func (mod *OutModule) Close() (err error) {
	if mod == nil {
		return
	}

	_, err = mod.FlushBuffer()
	closeErr := mod.sink.Close()
	if err == nil {
		err = closeErr
	}
	return
}
