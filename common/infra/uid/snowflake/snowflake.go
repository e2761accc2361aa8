package snowflake

// Issue 生成一个uid，同一实例的并发调用串行执行
func (g *Generator) Issue() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	// 时钟回拨直接返回错误，不等待也不复用旧时间戳
	if now < g.lastTimestamp {
		return 0, &ClockRegressionError{Last: g.lastTimestamp, Now: now}
	}

	sequence := int64(0)
	if now == g.lastTimestamp {
		sequence = (g.sequence + 1) & MaxSequence
		// 当前毫秒的4096个序号已用完
		if sequence == 0 {
			var err error
			if now, err = g.waitNextMillis(); err != nil {
				return 0, err
			}
		}
	}

	delta := now - g.epoch
	if delta > MaxTimestamp {
		return 0, ErrTimestampOverflow
	}

	g.sequence = sequence
	g.lastTimestamp = now

	return delta<<timestampShift | g.workerId<<workerIdShift | sequence, nil
}

// Decode 只做位提取，不校验uid是否由本实例生成
func (g *Generator) Decode(uid int64) MetaData {
	return MetaData{
		Timestamp: uid>>timestampShift + g.epoch,
		WorkerId:  (uid >> workerIdShift) & MaxWorkerId,
		Sequence:  uid & MaxSequence,
	}
}

// waitNextMillis 自旋直到时钟越过lastTimestamp
func (g *Generator) waitNextMillis() (int64, error) {
	for spin := 1; ; spin++ {
		if g.maxSpin > 0 && spin > g.maxSpin {
			return 0, ErrClockStalled
		}
		if now := g.clock(); now > g.lastTimestamp {
			return now, nil
		}
	}
}
