package assigner

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"Butterfly/common/util"
)

const NodePrefix = "worker_"

// Coordinated 通过协调服务中临时顺序节点的排名得到workerId
// 排名超过1023时不在这里处理，由生成器构造时校验
type Coordinated struct {
	coord     Coordinator
	namespace string
	hostInfo  func() string
	logger    *slog.Logger

	mu       sync.Mutex
	resolved bool
	id       int64
	node     string
}

type CoordinatedOption func(c *Coordinated)

func WithLogger(logger *slog.Logger) CoordinatedOption {
	return func(c *Coordinated) {
		c.logger = logger
	}
}

// WithHostInfo 替换节点数据，默认为ip:pid
func WithHostInfo(f func() string) CoordinatedOption {
	return func(c *Coordinated) {
		c.hostInfo = f
	}
}

func NewCoordinated(coord Coordinator, namespace string, opts ...CoordinatedOption) *Coordinated {
	c := &Coordinated{
		coord:     coord,
		namespace: namespace,
		hostInfo:  util.HostInfo,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve 多次调用返回第一次注册得到的workerId，不会重复注册
func (c *Coordinated) Resolve(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return c.id, nil
	}

	namespace := strings.TrimSuffix(c.namespace, "/")
	if namespace == "" {
		namespace = "/"
	}
	logger := util.SetTrace(ctx, c.logger)

	if err := c.coord.EnsurePersistent(ctx, namespace); err != nil {
		return 0, &AssignmentError{Op: "ensure namespace", Err: err}
	}

	// 上次注册成功但排名失败时复用已创建的节点，避免占用多余的排名
	if c.node == "" {
		prefix := path.Join(namespace, NodePrefix)
		data := c.hostInfo()
		logger.Info("create worker node", "path", prefix, "data", data)
		node, err := c.coord.CreateEphemeralSequential(ctx, prefix, []byte(data))
		if err != nil {
			return 0, &AssignmentError{Op: "create node", Err: err}
		}
		logger.Info("worker node created", "path", prefix, "node", node)
		c.node = node
	}
	node := c.node

	children, err := c.coord.Children(ctx, namespace)
	if err != nil {
		return 0, &AssignmentError{Op: "list children", Err: err}
	}

	// 顺序节点的序号补零，字典序即创建顺序
	sort.Strings(children)
	name := path.Base(node)
	id := sort.SearchStrings(children, name)
	if id == len(children) || children[id] != name {
		// 节点已不存在，重试时重新注册
		c.node = ""
		return 0, &AssignmentError{Op: "rank node", Err: ErrNodeMissing}
	}

	c.resolved = true
	c.id = int64(id)
	logger.Info("worker id resolved", "node", node, "workerId", c.id, "workers", len(children))
	return c.id, nil
}

// Node 返回注册的节点路径，未创建节点时为空
func (c *Coordinated) Node() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.node
}

// Close 提前删除临时节点，不必等待会话超时
func (c *Coordinated) Close() error {
	return c.coord.Close()
}
