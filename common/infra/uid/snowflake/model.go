package snowflake

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	WorkerIdBits  = 10
	SequenceBits  = 12
	TimestampBits = 41

	MaxWorkerId  = -1 ^ (-1 << WorkerIdBits)
	MaxSequence  = -1 ^ (-1 << SequenceBits)
	MaxTimestamp = -1 ^ (-1 << TimestampBits)

	workerIdShift  = SequenceBits
	timestampShift = SequenceBits + WorkerIdBits
)

// Clock 返回毫秒时间戳
type Clock func() int64

func SystemClock() int64 {
	return time.Now().UnixMilli()
}

type Generator struct {
	mu       sync.Mutex
	workerId int64
	epoch    int64
	clock    Clock
	// 序列号耗尽时等待下一毫秒的最大读时钟次数，0表示不限制
	maxSpin int

	// 上一次发号的时间戳，-1表示还未发号
	lastTimestamp int64
	sequence      int64
}

// MetaData uid解析结果
type MetaData struct {
	Timestamp int64 `json:"timestamp"`
	WorkerId  int64 `json:"workerId"`
	Sequence  int64 `json:"sequence"`
}

func (m MetaData) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

func (m MetaData) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

type Option func(g *Generator)

// WithClock 替换时钟，主要用于测试
func WithClock(clock Clock) Option {
	if clock == nil {
		panic("nil clock")
	}
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithMaxSpin 设置序列号耗尽后自旋读时钟的上限，超过后返回ErrClockStalled
func WithMaxSpin(n int) Option {
	if n < 0 {
		panic("invalid max spin value")
	}
	return func(g *Generator) {
		g.maxSpin = n
	}
}
