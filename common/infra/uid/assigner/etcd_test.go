package assigner

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

func freeURL(t *testing.T) url.URL {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return url.URL{Scheme: "http", Host: addr}
}

// startEtcd 启动单节点内嵌etcd，返回客户端地址
func startEtcd(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("embedded etcd skipped in short mode")
	}

	cfg := embed.NewConfig()
	cfg.Name = "uid-test"
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"
	client, peer := freeURL(t), freeURL(t)
	cfg.ListenClientUrls = []url.URL{client}
	cfg.AdvertiseClientUrls = []url.URL{client}
	cfg.ListenPeerUrls = []url.URL{peer}
	cfg.AdvertisePeerUrls = []url.URL{peer}
	cfg.InitialCluster = cfg.InitialClusterFromName(cfg.Name)

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatalf("start etcd: %v", err)
	}
	t.Cleanup(e.Close)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(15 * time.Second):
		e.Server.Stop()
		t.Fatalf("etcd not ready")
	}
	return client.Host
}

func newTestEtcdCoordinator(t *testing.T, endpoint string) *EtcdCoordinator {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := NewEtcdCoordinator(ctx, EtcdConfig{
		Endpoints:   []string{endpoint},
		DialTimeout: 3 * time.Second,
		SessionTTL:  10,
	})
	if err != nil {
		t.Fatalf("new etcd coordinator: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEtcdCoordinator(t *testing.T) {
	endpoint := startEtcd(t)
	ctx := context.Background()

	t.Run("ensure persistent is idempotent", func(t *testing.T) {
		c := newTestEtcdCoordinator(t, endpoint)
		for i := 0; i < 2; i++ {
			if err := c.EnsurePersistent(ctx, "/ensure/worker"); err != nil {
				t.Fatalf("ensure %d: %v", i, err)
			}
		}
		if _, err := c.CreateEphemeralSequential(ctx, "/ensure/worker/worker_", nil); err != nil {
			t.Fatalf("create: %v", err)
		}
		// 再次ensure不能重置序号
		if err := c.EnsurePersistent(ctx, "/ensure/worker"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		node, err := c.CreateEphemeralSequential(ctx, "/ensure/worker/worker_", nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if node != "/ensure/worker/worker_0000000001" {
			t.Fatalf("unexpected node %s", node)
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		c := newTestEtcdCoordinator(t, endpoint)
		if _, err := c.CreateEphemeralSequential(ctx, "/missing/worker_", nil); err != ErrNoNode {
			t.Fatalf("expected ErrNoNode, got %v", err)
		}
	})

	t.Run("registration order and slot reuse", func(t *testing.T) {
		const ns = "/order/uid/worker"
		coords := make([]*EtcdCoordinator, 3)
		assigners := make([]*Coordinated, 3)
		for i := range coords {
			coords[i] = newTestEtcdCoordinator(t, endpoint)
			assigners[i] = NewCoordinated(coords[i], ns, WithLogger(quietLogger()),
				WithHostInfo(func() string { return fmt.Sprintf("10.0.0.%d:1", i) }))
			id, err := assigners[i].Resolve(ctx)
			if err != nil {
				t.Fatalf("resolve %d: %v", i, err)
			}
			if id != int64(i) {
				t.Fatalf("expected worker %d, got %d", i, id)
			}
		}

		if err := assigners[0].Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		// 重复关闭返回第一次的结果
		if err := assigners[0].Close(); err != nil {
			t.Fatalf("close twice: %v", err)
		}

		children, err := coords[1].Children(ctx, ns)
		if err != nil {
			t.Fatalf("children: %v", err)
		}
		sort.Strings(children)
		if strings.Join(children, ",") != "worker_0000000001,worker_0000000002" {
			t.Fatalf("expected closed node removed, got %v", children)
		}

		d := NewCoordinated(newTestEtcdCoordinator(t, endpoint), ns, WithLogger(quietLogger()))
		id, err := d.Resolve(ctx)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if id != 2 || d.Node() != ns+"/worker_0000000003" {
			t.Fatalf("expected worker 2 at worker_0000000003, got %d at %s", id, d.Node())
		}
	})

	t.Run("concurrent creation", func(t *testing.T) {
		const ns = "/concurrent/uid/worker"
		const n = 8
		coords := make([]*EtcdCoordinator, n)
		for i := range coords {
			coords[i] = newTestEtcdCoordinator(t, endpoint)
		}
		if err := coords[0].EnsurePersistent(ctx, ns); err != nil {
			t.Fatalf("ensure: %v", err)
		}

		nodes := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range coords {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				nodes[i], errs[i] = coords[i].CreateEphemeralSequential(ctx, ns+"/worker_", nil)
			}(i)
		}
		wg.Wait()

		seen := make(map[string]bool)
		for i := range nodes {
			if errs[i] != nil {
				t.Fatalf("create %d: %v", i, errs[i])
			}
			if seen[nodes[i]] {
				t.Fatalf("duplicate node %s", nodes[i])
			}
			seen[nodes[i]] = true
		}
		sort.Strings(nodes)
		if nodes[0] != ns+"/worker_0000000000" || nodes[n-1] != ns+"/worker_0000000007" {
			t.Fatalf("unexpected sequence range %s..%s", nodes[0], nodes[n-1])
		}
	})

	t.Run("direct children only", func(t *testing.T) {
		const ns = "/direct/uid/worker"
		c := newTestEtcdCoordinator(t, endpoint)
		if err := c.EnsurePersistent(ctx, ns); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		if _, err := c.CreateEphemeralSequential(ctx, ns+"/worker_", nil); err != nil {
			t.Fatalf("create: %v", err)
		}

		raw, err := etcd.New(etcd.Config{Endpoints: []string{endpoint}, DialTimeout: 3 * time.Second})
		if err != nil {
			t.Fatalf("client: %v", err)
		}
		defer raw.Close()
		for _, key := range []string{ns + "/nested/deep", ns + "x"} {
			if _, err = raw.Put(ctx, key, "v"); err != nil {
				t.Fatalf("put %s: %v", key, err)
			}
		}

		children, err := c.Children(ctx, ns)
		if err != nil {
			t.Fatalf("children: %v", err)
		}
		if len(children) != 1 || children[0] != "worker_0000000000" {
			t.Fatalf("expected only the worker node, got %v", children)
		}
	})

	t.Run("session lease binds node", func(t *testing.T) {
		const ns = "/lease/uid/worker"
		c := newTestEtcdCoordinator(t, endpoint)
		if err := c.EnsurePersistent(ctx, ns); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		node, err := c.CreateEphemeralSequential(ctx, ns+"/worker_", []byte("10.0.0.9:42"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		res, err := c.client.Get(ctx, node)
		if err != nil || len(res.Kvs) != 1 {
			t.Fatalf("get node: %v", err)
		}
		if string(res.Kvs[0].Value) != "10.0.0.9:42" {
			t.Fatalf("unexpected data %s", res.Kvs[0].Value)
		}
		if etcd.LeaseID(res.Kvs[0].Lease) != c.session.Lease() {
			t.Fatalf("node not bound to session lease")
		}
	})
}
