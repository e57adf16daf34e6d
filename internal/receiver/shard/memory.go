package shard

import "github.com/pbnjay/memory"

// Byte budget from a percentage of currently free system memory
func byteLimit(memoryPct int) (limit uint64) {
	if memoryPct <= 0 {
		return
	}
	if memoryPct > 100 {
		memoryPct = 100
	}

	free := memory.FreeMemory()
	if free == 0 {
		// Unsupported platform, no guard
		return
	}
	limit = free / 100 * uint64(memoryPct)
	return
}
