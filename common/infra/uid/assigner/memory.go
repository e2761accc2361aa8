package assigner

import (
	"context"
	"errors"
	"strings"
	"sync"

	"Butterfly/common/util"
)

var (
	ErrNoNode         = errors.New("node does not exist")
	ErrSessionExpired = util.ErrSessionExpired
)

// MemoryRegistry 进程内的协调服务，语义与etcd实现一致
// 每个Session相当于一个独立客户端
type MemoryRegistry struct {
	mu    sync.Mutex
	nodes map[string]*memoryNode
}

type memoryNode struct {
	data  []byte
	seq   int64
	owner *MemorySession
}

type MemorySession struct {
	registry *MemoryRegistry
	closed   bool
	expired  bool
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{nodes: map[string]*memoryNode{"/": {}}}
}

func (r *MemoryRegistry) Session() *MemorySession {
	return &MemorySession{registry: r}
}

// Data 返回节点数据，节点不存在时返回false
func (r *MemoryRegistry) Data(p string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[p]
	if !ok {
		return nil, false
	}
	return n.data, true
}

// release 调用方持有r.mu
func (r *MemoryRegistry) release(s *MemorySession) {
	for p, n := range r.nodes {
		if n.owner == s {
			delete(r.nodes, p)
		}
	}
}

func (s *MemorySession) check() error {
	if s.expired {
		return ErrSessionExpired
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// EnsurePersistent 同时创建不存在的祖先节点
func (s *MemorySession) EnsurePersistent(_ context.Context, p string) error {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}

	p = strings.TrimSuffix(p, "/")
	for cur := p; cur != "/" && cur != "." && cur != ""; cur = parentOf(cur) {
		if _, ok := r.nodes[cur]; !ok {
			r.nodes[cur] = &memoryNode{}
		}
	}
	return nil
}

func (s *MemorySession) CreateEphemeralSequential(_ context.Context, prefix string, data []byte) (string, error) {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.check(); err != nil {
		return "", err
	}

	parent, ok := r.nodes[parentOf(prefix)]
	if !ok {
		return "", ErrNoNode
	}
	node := prefix + formatSeq(parent.seq)
	parent.seq++
	r.nodes[node] = &memoryNode{data: append([]byte(nil), data...), owner: s}
	return node, nil
}

func (s *MemorySession) Children(_ context.Context, p string) ([]string, error) {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	if _, ok := r.nodes[p]; !ok {
		return nil, ErrNoNode
	}
	var children []string
	for key := range r.nodes {
		if name, ok := directChild(p, key); ok {
			children = append(children, name)
		}
	}
	return children, nil
}

func (s *MemorySession) Close() error {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	r.release(s)
	return nil
}

// Expire 模拟会话超时，临时节点被删除，之后的调用返回ErrSessionExpired
func (s *MemorySession) Expire() {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	s.expired = true
	r.release(s)
}
