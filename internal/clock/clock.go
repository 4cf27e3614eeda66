// Package clock は現在時刻の取得を抽象化する。
// 計測の開始・停止・経過時間はすべてこのClockを基準に計算する。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返す。
type Clock interface {
	Now() time.Time
}

// SystemClock はシステム時刻をUTC・秒精度で返すClock。
type SystemClock struct{}

// Now は秒未満を切り捨てたUTCの現在時刻を返す。
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// FixedClock は任意の時刻を返すClock。テストで使用する。
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock は指定時刻を返すFixedClockを生成する。
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now は設定済みの時刻を返す。
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set は返す時刻を変更する。
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance は時刻をdだけ進める。
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
