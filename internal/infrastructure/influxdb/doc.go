// Package influxdb provides the optional telemetry history sink.
//
// When enabled, each successful storage poll is recorded as a batched,
// non-blocking measurement keyed by the device serial number. The sink
// records derived telemetry only; device events are never buffered or
// persisted here.
//
// Sink failures are reported through an error callback and logged; they
// never affect bridge operation or delivery guarantees on the bus.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	defer client.Close()
//
//	client.WriteStorageSample(serial, usedGB, totalGB, usedPercent)
package influxdb
