package assigner

import "context"

// Static 人工指定workerId，取值范围由生成器校验
type Static struct {
	id int64
}

func NewStatic(id int64) *Static {
	return &Static{id: id}
}

func (s *Static) Resolve(context.Context) (int64, error) {
	return s.id, nil
}
