package assigner

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// formatSeq 序号补零到10位，与ZooKeeper顺序节点一致，保证字典序等于数值序
func formatSeq(seq int64) string {
	return fmt.Sprintf("%010d", seq)
}

// parseSeq 父节点的值保存下一个序号，空值视为0
func parseSeq(v []byte) (int64, error) {
	if len(v) == 0 {
		return 0, nil
	}
	seq, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("malformed sequence %q", v)
	}
	return seq, nil
}

func childPrefix(p string) string {
	return strings.TrimSuffix(p, "/") + "/"
}

// directChild key是p的直接子节点时返回子节点名
func directChild(p string, key string) (string, bool) {
	name, ok := strings.CutPrefix(key, childPrefix(p))
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func parentOf(p string) string {
	return path.Dir(p)
}
