package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// gpsd watch command enabling JSON reports on the connection.
const gpsdWatchCommand = "?WATCH={\"enable\":true,\"json\":true}\n"

// A TPV report with mode below 2 carries no usable fix.
const gpsdModeFix2D = 2

// tpvReport is the subset of a gpsd TPV report the agent reads. Lat and Lon
// are pointers because gpsd omits them while the receiver has no fix.
type tpvReport struct {
	Class string     `json:"class"`
	Time  *time.Time `json:"time"`
	Lat   *float64   `json:"lat"`
	Lon   *float64   `json:"lon"`
	Mode  int        `json:"mode"`
}

// GpsdSource obtains position fixes from a gpsd endpoint.
//
// Each Acquire opens a fresh watch connection and blocks until the daemon
// reports a 2D or better fix, the stream ends, or the context is done.
// Obtaining a first fix can take seconds on a cold receiver.
type GpsdSource struct {
	address agentDomain.SourceAddress
	logger  agentDomain.Logger
}

// Acquire reads TPV reports from gpsd until one carries a usable fix.
// All failure modes (daemon unreachable, stream closed, context done before a
// fix) are reported as the location being unavailable.
func (g *GpsdSource) Acquire(ctx context.Context) (*agentDomain.LocationSample, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", string(g.address))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to gpsd: %s", agentDomain.ErrLocationUnavailable, err.Error())
	}

	// Unblock the read loop when the context ends mid-acquisition.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	if _, err := conn.Write([]byte(gpsdWatchCommand)); err != nil {
		return nil, fmt.Errorf("%w: enabling watch: %s", agentDomain.ErrLocationUnavailable, err.Error())
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var report tpvReport
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			g.logger.Error("skipping malformed gpsd report: %s", err.Error())
			continue
		}

		if report.Class != "TPV" || report.Mode < gpsdModeFix2D || report.Lat == nil || report.Lon == nil {
			continue
		}

		capturedAt := time.Now().UTC()
		if report.Time != nil && !report.Time.IsZero() {
			capturedAt = report.Time.UTC()
		}

		return &agentDomain.LocationSample{
			Latitude:   *report.Lat,
			Longitude:  *report.Lon,
			CapturedAt: capturedAt,
		}, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s", agentDomain.ErrLocationUnavailable, ctx.Err().Error())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading gpsd stream: %s", agentDomain.ErrLocationUnavailable, err.Error())
	}
	return nil, fmt.Errorf("%w: gpsd stream ended without a fix", agentDomain.ErrLocationUnavailable)
}

// NewGpsdSource creates a location source backed by the gpsd at the given address.
func NewGpsdSource(address agentDomain.SourceAddress, logger agentDomain.Logger) *GpsdSource {
	return &GpsdSource{
		address: address,
		logger:  logger,
	}
}
