// Package biomarker 提供生物指标派生算法
//
// 主要功能：
// - 固定容量采样缓冲（滑动窗口 / 填满清空两种模式）
// - HRV 估计（逐次差值的 RMSSD）
// - 躁动分数估计（方向反转检测，0-100）
// - 旧版估计器变体（时间戳门控 HRV、重力归一化躁动），可配置启用
package biomarker

import "time"

// EvictionMode 缓冲区溢出处理模式
type EvictionMode int

const (
	// ModeSliding 滑动窗口：超出容量时从头部逐出最旧数据
	ModeSliding EvictionMode = iota
	// ModeFillClear 填满触发：Append 不逐出，由调用方在计算后整体 Clear
	ModeFillClear
)

// Reading 缓冲区中的单条读数
// 简单估计器只使用 Value；旧版 HRV 变体依赖 At 做时间门控
type Reading struct {
	Value float64
	At    time.Time
}

// SampleBuffer 单通道采样缓冲（纯内存，无 I/O，无失败模式）
// 不变式：任何操作完成后 Len() <= capacity
type SampleBuffer struct {
	readings []Reading
	capacity int
	mode     EvictionMode
}

// NewSampleBuffer 创建采样缓冲
func NewSampleBuffer(capacity int, mode EvictionMode) *SampleBuffer {
	return &SampleBuffer{
		readings: make([]Reading, 0, capacity),
		capacity: capacity,
		mode:     mode,
	}
}

// Append 追加一条读数
// 滑动窗口模式下超出容量时逐出最旧读数直至长度等于容量
func (b *SampleBuffer) Append(value float64, at time.Time) {
	b.readings = append(b.readings, Reading{Value: value, At: at})

	if b.mode == ModeSliding {
		for len(b.readings) > b.capacity {
			b.readings = b.readings[1:]
		}
	}
}

// Clear 清空缓冲区
func (b *SampleBuffer) Clear() {
	b.readings = b.readings[:0]
}

// Len 当前长度
func (b *SampleBuffer) Len() int {
	return len(b.readings)
}

// Full 是否已达到容量（填满触发模式的计算条件）
func (b *SampleBuffer) Full() bool {
	return len(b.readings) >= b.capacity
}

// Snapshot 返回有序只读副本，供估计器使用
// 副本与缓冲区不共享底层数组，后续 Append/Clear 不会影响进行中的计算
func (b *SampleBuffer) Snapshot() []Reading {
	snapshot := make([]Reading, len(b.readings))
	copy(snapshot, b.readings)
	return snapshot
}
