package service

import (
	"context"
	"errors"

	"github.com/yeisme/pastevault/pkg/internal/model"
)

// 描述符状态标签.
const (
	StateActive    = "active"
	StatePending   = "pending"
	StateExhausted = "exhausted"
)

// StatsKey 统计维度.
type StatsKey struct {
	Type  string
	State string
}

// Stats 描述符索引的快照统计.
type Stats struct {
	Counts    map[StatsKey]int64
	Bytes     int64
	Protected int64
	// Skipped 读取期间消失或无法解码的记录
	Skipped int64
}

// Total 描述符总数.
func (st Stats) Total() int64 {
	var n int64
	for _, c := range st.Counts {
		n += c
	}

	return n
}

// Stats 遍历索引统计描述符. 遍历期间过期的记录计入 Skipped.
func (s *PasteService) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Counts: make(map[StatsKey]int64)}

	ids, err := s.IDs(ctx)
	if err != nil {
		return st, err
	}

	now := s.now()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		d, err := s.load(ctx, "stats", id)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstreamFailure) {
				st.Skipped++
				continue
			}

			return st, err
		}

		if d.IsExpired(now) {
			st.Skipped++
			continue
		}

		st.Counts[StatsKey{Type: d.PasteType.String(), State: stateOf(d)}]++
		st.Bytes += d.FileSize

		if d.HasPassword() {
			st.Protected++
		}
	}

	return st, nil
}

func stateOf(d *model.PasteDescriptor) string {
	switch {
	case d.IsPending():
		return StatePending
	case d.IsExhausted():
		return StateExhausted
	default:
		return StateActive
	}
}
