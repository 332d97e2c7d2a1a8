package etl

import (
	"fmt"
	"sync/atomic"
	"time"
)

type Metrics struct {
	Mapped       int64 // atomic
	Failed       int64 // atomic
	Rows         int64 // atomic
	Invalid      int64 // atomic
	Objects      int64 // atomic
	BytesWritten int64 // atomic
	mappingTime  int64 // nanoseconds, atomic
}

type MetricsSnapshot struct {
	Mapped       int64         `json:"mapped"`
	Failed       int64         `json:"failed"`
	Rows         int64         `json:"rows"`
	Invalid      int64         `json:"invalid"`
	Objects      int64         `json:"objects"`
	BytesWritten int64         `json:"bytes_written"`
	MappingTime  time.Duration `json:"mapping_time_ns"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Mapped:       atomic.LoadInt64(&m.Mapped),
		Failed:       atomic.LoadInt64(&m.Failed),
		Rows:         atomic.LoadInt64(&m.Rows),
		Invalid:      atomic.LoadInt64(&m.Invalid),
		Objects:      atomic.LoadInt64(&m.Objects),
		BytesWritten: atomic.LoadInt64(&m.BytesWritten),
		MappingTime:  time.Duration(atomic.LoadInt64(&m.mappingTime)),
	}
}

func (m *Metrics) IncMapped()       { atomic.AddInt64(&m.Mapped, 1) }
func (m *Metrics) IncFailed()       { atomic.AddInt64(&m.Failed, 1) }
func (m *Metrics) AddRows(n int)    { atomic.AddInt64(&m.Rows, int64(n)) }
func (m *Metrics) AddInvalid(n int) { atomic.AddInt64(&m.Invalid, int64(n)) }
func (m *Metrics) IncObjects()      { atomic.AddInt64(&m.Objects, 1) }
func (m *Metrics) AddBytes(n int)   { atomic.AddInt64(&m.BytesWritten, int64(n)) }

func (m *Metrics) AddMappingTime(d time.Duration) {
	atomic.AddInt64(&m.mappingTime, d.Nanoseconds())
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("mapped=%d failed=%d rows=%d invalid=%d objects=%d bytes=%d mapping=%s",
		s.Mapped, s.Failed, s.Rows, s.Invalid, s.Objects, s.BytesWritten, s.MappingTime)
}
