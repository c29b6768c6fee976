// Package rudpmetrics tracks retry, timeout and throughput counters
// for a single rudp endpoint. It replaces the ad hoc printf tracing of
// the original implementation with queryable, concurrency-safe
// counters, in the style of a connection profiler, and additionally
// mirrors every counter into a process-wide expvar so a long-running
// driver's totals are visible over /debug/vars without pulling in an
// external metrics client.
package rudpmetrics

import (
	"expvar"
	"fmt"
	"sync/atomic"
)

// Process-wide totals across every Endpoint created in this process,
// published the way github.com/anacrolix/utp publishes its package
// counters: package-level expvar.Int vars, incremented inline from the
// Record* call sites below.
var (
	segmentsSentTotal     = expvar.NewInt("rudp_segments_sent_total")
	segmentsReceivedTotal = expvar.NewInt("rudp_segments_received_total")
	retriesTotal          = expvar.NewInt("rudp_retries_total")
	timeoutsTotal         = expvar.NewInt("rudp_timeouts_total")
	duplicatesTotal       = expvar.NewInt("rudp_duplicates_total")
	checksumErrorsTotal   = expvar.NewInt("rudp_checksum_errors_total")
	bytesSentTotal        = expvar.NewInt("rudp_bytes_sent_total")
	bytesReceivedTotal    = expvar.NewInt("rudp_bytes_received_total")
)

// Endpoint accumulates counters for one Sender or Receiver over its
// lifetime. The zero value is ready to use. Every Record* call also
// adds to this package's process-wide expvar totals.
type Endpoint struct {
	segmentsSent     atomic.Uint64
	segmentsReceived atomic.Uint64
	retries          atomic.Uint64
	timeouts         atomic.Uint64
	duplicates       atomic.Uint64
	checksumErrors   atomic.Uint64
	bytesSent        atomic.Uint64
	bytesReceived    atomic.Uint64
}

// RecordSegmentSent records one segment placed on the wire.
func (e *Endpoint) RecordSegmentSent(payloadLen int) {
	if e == nil {
		return
	}
	e.segmentsSent.Add(1)
	e.bytesSent.Add(uint64(payloadLen))
	segmentsSentTotal.Add(1)
	bytesSentTotal.Add(int64(payloadLen))
}

// RecordSegmentReceived records one segment accepted into the
// reassembly buffer.
func (e *Endpoint) RecordSegmentReceived(payloadLen int) {
	if e == nil {
		return
	}
	e.segmentsReceived.Add(1)
	e.bytesReceived.Add(uint64(payloadLen))
	segmentsReceivedTotal.Add(1)
	bytesReceivedTotal.Add(int64(payloadLen))
}

// RecordRetry records one consumed retry attempt (lost send, timed
// out ACK, or a protocol error on a reply).
func (e *Endpoint) RecordRetry() {
	if e == nil {
		return
	}
	e.retries.Add(1)
	retriesTotal.Add(1)
}

// RecordTimeout records one receive that exceeded its deadline.
func (e *Endpoint) RecordTimeout() {
	if e == nil {
		return
	}
	e.timeouts.Add(1)
	timeoutsTotal.Add(1)
}

// RecordDuplicate records one segment whose number was behind the
// receiver's expected sequence number and so was re-ACKed but not
// appended to the reassembly buffer.
func (e *Endpoint) RecordDuplicate() {
	if e == nil {
		return
	}
	e.duplicates.Add(1)
	duplicatesTotal.Add(1)
}

// RecordChecksumError records one datagram that failed checksum
// validation.
func (e *Endpoint) RecordChecksumError() {
	if e == nil {
		return
	}
	e.checksumErrors.Add(1)
	checksumErrorsTotal.Add(1)
}

// Snapshot is a point-in-time copy of an Endpoint's counters.
type Snapshot struct {
	SegmentsSent     uint64
	SegmentsReceived uint64
	Retries          uint64
	Timeouts         uint64
	Duplicates       uint64
	ChecksumErrors   uint64
	BytesSent        uint64
	BytesReceived    uint64
}

// Snapshot returns the current value of every counter.
func (e *Endpoint) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	return Snapshot{
		SegmentsSent:     e.segmentsSent.Load(),
		SegmentsReceived: e.segmentsReceived.Load(),
		Retries:          e.retries.Load(),
		Timeouts:         e.timeouts.Load(),
		Duplicates:       e.duplicates.Load(),
		ChecksumErrors:   e.checksumErrors.Load(),
		BytesSent:        e.bytesSent.Load(),
		BytesReceived:    e.bytesReceived.Load(),
	}
}

// String renders the snapshot for human consumption, e.g. in a
// throughput driver's summary line.
func (s Snapshot) String() string {
	return fmt.Sprintf(
		"segments{sent=%d recv=%d} bytes{sent=%d recv=%d} retries=%d timeouts=%d duplicates=%d checksumErrors=%d",
		s.SegmentsSent, s.SegmentsReceived, s.BytesSent, s.BytesReceived,
		s.Retries, s.Timeouts, s.Duplicates, s.ChecksumErrors,
	)
}
