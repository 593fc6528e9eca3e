//go:build linux

package platform

import (
	"os"
	"strconv"
	"strings"
)

// sysfs paths for cpu0's cache index0, index1 and index2 (on typical
// systems the L1 data, L1 instruction and L2 caches), tried in that
// order, as a stand-in for the original C getcachesize()'s
// sysconf(_SC_LEVEL1_DCACHE_LINESIZE, ...) fallback chain.
var coherencyLineSizePaths = []string{
	"/sys/devices/system/cpu/cpu0/cache/index0/coherency_line_size",
	"/sys/devices/system/cpu/cpu0/cache/index1/coherency_line_size",
	"/sys/devices/system/cpu/cpu0/cache/index2/coherency_line_size",
}

func cachelineSize() int64 {
	for _, path := range coherencyLineSizePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		val, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil || val <= 0 {
			continue
		}
		return val
	}
	return -1
}
