package amcrest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StorageStats holds aggregated capacity figures across the camera's
// storage devices (SD card slots).
type StorageStats struct {
	UsedBytes   uint64
	TotalBytes  uint64
	UsedPercent float64
}

// StorageStats queries storageDevice.cgi for capacity totals.
//
// The camera reports one Detail block per storage device; used and total
// bytes are summed across all of them. Failures are transient
// (ErrUnavailable): the storage poll logs and skips the tick.
func (c *Client) StorageStats(ctx context.Context) (StorageStats, error) {
	body, err := c.get(ctx, "/cgi-bin/storageDevice.cgi", url.Values{"action": {"getDeviceAllInfo"}})
	if err != nil {
		return StorageStats{}, err
	}

	stats, err := parseStorageInfo(body)
	if err != nil {
		return StorageStats{}, err
	}
	return stats, nil
}

// parseStorageInfo sums TotalBytes/UsedBytes fields from the key=value
// response format, e.g.:
//
//	list.info[0].Detail[0].TotalBytes=31268536320
//	list.info[0].Detail[0].UsedBytes=7782400000
func parseStorageInfo(body string) (StorageStats, error) {
	var stats StorageStats
	var sawTotal bool

	for _, line := range strings.Split(body, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}

		switch {
		case strings.HasSuffix(key, ".TotalBytes"):
			n, err := parseBytes(value)
			if err != nil {
				return StorageStats{}, fmt.Errorf("%w: %s=%q", ErrBadResponse, key, value)
			}
			stats.TotalBytes += n
			sawTotal = true
		case strings.HasSuffix(key, ".UsedBytes"):
			n, err := parseBytes(value)
			if err != nil {
				return StorageStats{}, fmt.Errorf("%w: %s=%q", ErrBadResponse, key, value)
			}
			stats.UsedBytes += n
		}
	}

	if !sawTotal {
		return StorageStats{}, fmt.Errorf("%w: no storage totals in response", ErrBadResponse)
	}

	if stats.TotalBytes > 0 {
		stats.UsedPercent = float64(stats.UsedBytes) / float64(stats.TotalBytes) * 100
	}
	return stats, nil
}

// parseBytes accepts both integer and float renderings; some firmware
// reports byte counts with a fractional part.
func parseBytes(value string) (uint64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid byte count %q", value)
	}
	return uint64(f), nil
}
