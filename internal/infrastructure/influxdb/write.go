package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStorageSample records one storage telemetry sample for a device.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Samples are keyed by the device serial number so several bridge
// instances can share one bucket.
//
// Parameters:
//   - serialNumber: Device serial number (tag)
//   - usedGB: Used capacity in gigabytes
//   - totalGB: Total capacity in gigabytes
//   - usedPercent: Used capacity as a percentage
func (c *Client) WriteStorageSample(serialNumber string, usedGB, totalGB, usedPercent float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"storage",
		map[string]string{
			"serial_number": serialNumber,
		},
		map[string]interface{}{
			"used_gb":      usedGB,
			"total_gb":     totalGB,
			"used_percent": usedPercent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
