package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/influxdb"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/logging"
)

// defaultProbeTimeout bounds a single liveness probe round trip.
const defaultProbeTimeout = 5 * time.Second

// Prober checks that a host is still answering on the network.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// pingProber probes with a single unprivileged ICMP echo (UDP datagram
// socket, no raw-socket capability needed).
type pingProber struct{}

func (pingProber) Probe(ctx context.Context, host string) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return fmt.Errorf("creating pinger: %w", err)
	}
	pinger.Count = 1
	pinger.Timeout = defaultProbeTimeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return fmt.Errorf("running probe: %w", err)
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return errors.New("no echo reply")
	}
	return nil
}

// Scheduler runs the bridge's periodic telemetry work: storage polling
// and the device liveness probe. Both loops are tied to the lifecycle
// context and stop when it is cancelled.
type Scheduler struct {
	dev      DeviceClient
	pub      Publisher
	topics   TopicSet
	identity DeviceIdentity
	history  *influxdb.Client
	prober   Prober
	log      *logging.Logger

	storageInterval  time.Duration
	livenessInterval time.Duration

	// fatal escalates an unrecoverable telemetry failure to the process
	// shutdown path.
	fatal func(msg string, err error)
}

// SchedulerOptions configures a telemetry Scheduler.
type SchedulerOptions struct {
	Device   DeviceClient
	Pub      Publisher
	Topics   TopicSet
	Identity DeviceIdentity

	// History is the optional time-series sink for storage samples; nil
	// disables history writes.
	History *influxdb.Client

	// StorageInterval of zero disables storage polling entirely.
	StorageInterval time.Duration

	// LivenessInterval of zero disables the liveness probe.
	LivenessInterval time.Duration

	Log   *logging.Logger
	Fatal func(msg string, err error)
}

// NewScheduler builds a Scheduler. Nothing runs until Start.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	return &Scheduler{
		dev:              opts.Device,
		pub:              opts.Pub,
		topics:           opts.Topics,
		identity:         opts.Identity,
		history:          opts.History,
		prober:           pingProber{},
		log:              opts.Log,
		storageInterval:  opts.StorageInterval,
		livenessInterval: opts.LivenessInterval,
		fatal:            opts.Fatal,
	}
}

// Start launches the enabled telemetry loops. Loops exit when ctx is
// cancelled; a zero interval means the corresponding loop never starts.
func (s *Scheduler) Start(ctx context.Context) {
	if s.storageInterval > 0 {
		go s.storageLoop(ctx)
	}
	if s.livenessInterval > 0 {
		go s.livenessLoop(ctx)
	}
}

// storageLoop polls storage immediately, then on every tick. A transient
// device failure skips the cycle; a publish failure is fatal because the
// transport contract treats any failed delivery as unrecoverable.
func (s *Scheduler) storageLoop(ctx context.Context) {
	s.pollStorage(ctx)

	ticker := time.NewTicker(s.storageInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollStorage(ctx)
		}
	}
}

func (s *Scheduler) pollStorage(ctx context.Context) {
	stats, err := s.dev.StorageStats(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Skip the cycle; the liveness probe decides whether the device
		// is actually gone.
		s.log.Warn("storage poll failed, skipping cycle", "error", err)
		return
	}

	usedGB := gigabytes(stats.UsedBytes)
	totalGB := gigabytes(stats.TotalBytes)

	samples := []struct {
		topic string
		value string
	}{
		{s.topics.StorageUsedPercent, formatValue(stats.UsedPercent)},
		{s.topics.StorageUsed, formatValue(usedGB)},
		{s.topics.StorageTotal, formatValue(totalGB)},
	}
	for _, sample := range samples {
		if err := s.pub.PublishString(sample.topic, sample.value); err != nil {
			s.fatal("storage publish failed", err)
			return
		}
	}

	if s.history != nil {
		s.history.WriteStorageSample(s.identity.SerialNumber, usedGB, totalGB, stats.UsedPercent)
	}
}

// livenessLoop probes the device on every tick. The event stream blocks
// silently when a camera drops off the network, so probe failure is
// fatal rather than retried.
func (s *Scheduler) livenessLoop(ctx context.Context) {
	ticker := time.NewTicker(s.livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.prober.Probe(ctx, s.dev.Host()); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.fatal("device liveness probe failed",
					fmt.Errorf("%w: %v", ErrDeviceUnreachable, err))
				return
			}
		}
	}
}

// gigabytes converts a byte count to gigabytes rounded to two decimal
// places.
func gigabytes(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

// formatValue renders a telemetry value with a fixed two-decimal format so
// consumers see a stable shape ("29.30", not "29.3").
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var _ Prober = pingProber{}
