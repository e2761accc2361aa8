package util

import (
	"context"
	"errors"
	"sync"

	etcd "go.etcd.io/etcd/client/v3"
)

var ErrSessionExpired = errors.New("etcd session expired")

// EtcdSession 绑定一个自动续约的lease，挂在该lease上的key在会话结束时由etcd删除
type EtcdSession struct {
	client  *etcd.Client
	leaseId etcd.LeaseID
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewEtcdSession ttl单位为秒
func NewEtcdSession(ctx context.Context, client *etcd.Client, ttl int64) (*EtcdSession, error) {
	leaseResp, err := client.Grant(ctx, ttl)
	if err != nil {
		return nil, err
	}

	// 续约不能跟随调用方的ctx结束
	keepCtx, cancel := context.WithCancel(context.Background())
	ch, err := client.KeepAlive(keepCtx, leaseResp.ID)
	if err != nil {
		cancel()
		_, _ = client.Revoke(context.Background(), leaseResp.ID)
		return nil, err
	}

	s := &EtcdSession{
		client:  client,
		leaseId: leaseResp.ID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		for range ch {
			continue
		}
		// 续约失效，会话结束
		close(s.done)
	}()
	return s, nil
}

func (s *EtcdSession) Lease() etcd.LeaseID {
	return s.leaseId
}

// Done 会话过期或关闭后返回的channel被关闭
func (s *EtcdSession) Done() <-chan struct{} {
	return s.done
}

func (s *EtcdSession) Alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Close 撤销lease，立即删除挂在其上的key
func (s *EtcdSession) Close(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.cancel()
		_, err = s.client.Revoke(ctx, s.leaseId)
	})
	return err
}
