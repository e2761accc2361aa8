package snowflake

import "fmt"

// NewGenerator workerId和epoch在生成器生命周期内不可变
func NewGenerator(workerId int64, epoch int64, opts ...Option) (*Generator, error) {
	g := &Generator{
		workerId:      workerId,
		epoch:         epoch,
		clock:         SystemClock,
		lastTimestamp: -1,
	}
	for _, opt := range opts {
		opt(g)
	}

	if workerId < 0 || workerId > MaxWorkerId {
		return nil, fmt.Errorf("%w: workerId %d must in [0, %d]", ErrConfiguration, workerId, MaxWorkerId)
	}
	now := g.clock()
	if epoch <= 0 || epoch > now {
		return nil, fmt.Errorf("%w: epoch %d must in (0, %d]", ErrConfiguration, epoch, now)
	}
	return g, nil
}

func (g *Generator) WorkerId() int64 {
	return g.workerId
}

func (g *Generator) Epoch() int64 {
	return g.epoch
}
