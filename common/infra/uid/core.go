package uid

import (
	"Butterfly/common/infra/uid/snowflake"
	"errors"
	"io"
	"sync"
)

// Core 发号器，Issue在进程内完成，不涉及网络
type Core interface {
	// Issue 获取一个分布式唯一id，时钟回拨时返回错误
	Issue() (int64, error)
	// Decode 解析id中的时间戳、workerId和序号
	Decode(uid int64) snowflake.MetaData
}

var _ Core = (*snowflake.Generator)(nil)

// Instance 由NewCore创建，Close释放注册的workerId并关闭日志文件
type Instance struct {
	*snowflake.Generator
	closers []io.Closer

	once sync.Once
	err  error
}

// Close 按顺序关闭，重复调用返回第一次的结果
func (i *Instance) Close() error {
	i.once.Do(func() {
		i.err = closeAll(i.closers)
	})
	return i.err
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
