package uid

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"Butterfly/common/infra/uid/assigner"
	"Butterfly/common/infra/uid/snowflake"
	"Butterfly/common/util"
)

var ErrNoModel = errors.New("no such model")

// Factory 将assigner解析出的workerId与epoch绑定为生成器
type Factory struct {
	Logger *slog.Logger
}

// Create 只调用一次Resolve，workerId越界(如超过1024个节点注册)时返回snowflake.ErrConfiguration
func (f *Factory) Create(ctx context.Context, a assigner.WorkerIdAssigner, epoch int64, opts ...snowflake.Option) (*snowflake.Generator, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = util.SetTrace(ctx, logger)

	workerId, err := a.Resolve(ctx)
	if err != nil {
		logger.Error("resolve worker id: " + err.Error())
		return nil, err
	}

	g, err := snowflake.NewGenerator(workerId, epoch, opts...)
	if err != nil {
		logger.Error("create generator: "+err.Error(), "workerId", workerId, "epoch", epoch)
		return nil, err
	}
	logger.Info("generator created", "workerId", workerId, "epoch", epoch)
	return g, nil
}

func Create(ctx context.Context, a assigner.WorkerIdAssigner, epoch int64, opts ...snowflake.Option) (*snowflake.Generator, error) {
	f := &Factory{}
	return f.Create(ctx, a, epoch, opts...)
}

// NewCore 省略factory的简单工厂模式，根据配置选择assigner
func NewCore(ctx context.Context, config Config) (*Instance, error) {
	logger, logCloser, err := util.InitLog(config.Name, util.ParseLevel(config.Log.Level), config.Log.Path)
	if err != nil {
		return nil, err
	}

	var a assigner.WorkerIdAssigner
	// 先释放注册，再关闭日志
	closers := []io.Closer{logCloser}

	switch config.Model {
	case Static:
		a = assigner.NewStatic(config.Static.WorkerId)
	case Coordinated:
		coord, err := assigner.NewEtcdCoordinator(ctx, assigner.EtcdConfig{
			Endpoints:   config.Coordinated.EtcdAddr,
			DialTimeout: config.Coordinated.DialTimeout,
			SessionTTL:  config.Coordinated.SessionTTL,
		})
		if err != nil {
			logger.Error("connect etcd: "+err.Error(), "endpoints", config.Coordinated.EtcdAddr)
			_ = logCloser.Close()
			return nil, &assigner.AssignmentError{Op: "connect", Err: err}
		}
		c := assigner.NewCoordinated(coord, config.Coordinated.Namespace, assigner.WithLogger(logger))
		a = c
		closers = []io.Closer{c, logCloser}
	default:
		_ = logCloser.Close()
		return nil, ErrNoModel
	}

	return newInstance(ctx, &Factory{Logger: logger}, a, closers, config)
}

func newInstance(ctx context.Context, f *Factory, a assigner.WorkerIdAssigner, closers []io.Closer, config Config) (*Instance, error) {
	g, err := f.Create(ctx, a, config.Epoch, snowflake.WithMaxSpin(config.MaxSpin))
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}
	return &Instance{Generator: g, closers: closers}, nil
}
