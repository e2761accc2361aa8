package assigner

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"Butterfly/common/util"

	etcd "go.etcd.io/etcd/client/v3"
)

type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	// 会话超时，单位秒
	SessionTTL int64
}

// EtcdCoordinator 用etcd模拟ZooKeeper的节点语义
// 持久节点为不带lease的key，临时节点挂在会话lease上
// 父节点的值保存下一个子节点序号，通过事务递增
type EtcdCoordinator struct {
	client  *etcd.Client
	session *util.EtcdSession

	once     sync.Once
	closeErr error
}

func NewEtcdCoordinator(ctx context.Context, config EtcdConfig) (*EtcdCoordinator, error) {
	client, err := etcd.New(etcd.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	// 非阻塞拨号时DialTimeout不生效，用它限制首次申请lease的时间
	grantCtx := ctx
	if config.DialTimeout > 0 {
		var cancel context.CancelFunc
		grantCtx, cancel = context.WithTimeout(ctx, config.DialTimeout)
		defer cancel()
	}
	session, err := util.NewEtcdSession(grantCtx, client, config.SessionTTL)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &EtcdCoordinator{client: client, session: session}, nil
}

func (c *EtcdCoordinator) EnsurePersistent(ctx context.Context, path string) error {
	if !c.session.Alive() {
		return ErrSessionExpired
	}
	_, err := c.client.Txn(ctx).
		If(etcd.Compare(etcd.CreateRevision(path), "=", 0)).
		Then(etcd.OpPut(path, "0")).
		Commit()
	return err
}

func (c *EtcdCoordinator) CreateEphemeralSequential(ctx context.Context, prefix string, data []byte) (string, error) {
	parent := parentOf(prefix)

	for {
		if !c.session.Alive() {
			return "", ErrSessionExpired
		}
		res, err := c.client.Get(ctx, parent)
		if err != nil {
			return "", err
		}
		if len(res.Kvs) == 0 {
			return "", ErrNoNode
		}
		kv := res.Kvs[0]
		seq, err := parseSeq(kv.Value)
		if err != nil {
			return "", err
		}

		// 父节点未被修改时才递增序号并创建子节点
		node := prefix + formatSeq(seq)
		txn, err := c.client.Txn(ctx).
			If(etcd.Compare(etcd.ModRevision(parent), "=", kv.ModRevision)).
			Then(
				etcd.OpPut(parent, strconv.FormatInt(seq+1, 10)),
				etcd.OpPut(node, string(data), etcd.WithLease(c.session.Lease())),
			).
			Commit()
		if err != nil {
			return "", err
		}
		if txn.Succeeded {
			return node, nil
		}

		// 与其他节点竞争失败，重新读取序号
		if err = ctx.Err(); err != nil {
			return "", err
		}
	}
}

func (c *EtcdCoordinator) Children(ctx context.Context, path string) ([]string, error) {
	if !c.session.Alive() {
		return nil, ErrSessionExpired
	}
	res, err := c.client.Get(ctx, childPrefix(path), etcd.WithPrefix(), etcd.WithKeysOnly())
	if err != nil {
		return nil, err
	}
	children := make([]string, 0, len(res.Kvs))
	for _, kv := range res.Kvs {
		if name, ok := directChild(path, string(kv.Key)); ok {
			children = append(children, name)
		}
	}
	return children, nil
}

// Close 重复调用返回第一次的结果
func (c *EtcdCoordinator) Close() error {
	c.once.Do(func() {
		timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		c.closeErr = errors.Join(c.session.Close(timeout), c.client.Close())
	})
	return c.closeErr
}
