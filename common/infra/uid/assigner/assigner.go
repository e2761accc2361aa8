package assigner

import (
	"context"
	"errors"
)

var (
	ErrAssignment = errors.New("worker id assignment failed")
	// ErrNodeMissing 刚创建的节点不在子节点列表中
	ErrNodeMissing = errors.New("registered node missing from children")
	ErrClosed      = errors.New("coordinator closed")
)

// WorkerIdAssigner 为当前进程解析workerId，只在启动时调用一次
type WorkerIdAssigner interface {
	Resolve(ctx context.Context) (int64, error)
}

// Coordinator 协调服务提供的能力
type Coordinator interface {
	// EnsurePersistent 创建持久节点，已存在时不做任何事
	EnsurePersistent(ctx context.Context, path string) error
	// CreateEphemeralSequential 在prefix后追加服务端分配的递增序号，返回完整路径
	// 节点在会话结束时自动删除
	CreateEphemeralSequential(ctx context.Context, prefix string, data []byte) (string, error)
	// Children 返回path下直接子节点的名称
	Children(ctx context.Context, path string) ([]string, error)
	// Close 结束会话，删除该会话创建的所有临时节点
	Close() error
}

type AssignmentError struct {
	Op  string
	Err error
}

func (e *AssignmentError) Error() string {
	return "assign worker id: " + e.Op + ": " + e.Err.Error()
}

func (e *AssignmentError) Unwrap() error {
	return e.Err
}

func (e *AssignmentError) Is(target error) bool {
	return target == ErrAssignment
}
