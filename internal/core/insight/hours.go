package insight

import (
	"errors"
	"fmt"
)

var ErrInvalidHourRange = errors.New("insight: invalid reportable hour range")

// HourRange はレポート対象となる連続した現地時刻の範囲 (両端を含む) です。
// 例: First=6, Last=14 は 06:00-14:59 の 9 スロットを表します。
type HourRange struct {
	First int
	Last  int
}

// FullDay は 0 時から 23 時までの範囲です。
var FullDay = HourRange{First: 0, Last: 23}

// Validate は範囲が 0..23 に収まり First <= Last であることを確認します。
func (r HourRange) Validate() error {
	if r.First < 0 || r.Last > 23 || r.First > r.Last {
		return fmt.Errorf("%d-%d: %w", r.First, r.Last, ErrInvalidHourRange)
	}
	return nil
}

// Len はスロット数を返します。
func (r HourRange) Len() int {
	return r.Last - r.First + 1
}

// Contains は hour が範囲内かどうかを返します。
func (r HourRange) Contains(hour int) bool {
	return hour >= r.First && hour <= r.Last
}

// Opening は最初のスロットの開始時刻を HH:MM で返します。
func (r HourRange) Opening() string {
	return fmt.Sprintf("%02d:00", r.First)
}

// Closing は最後のスロットの終了時刻を HH:MM で返します。
func (r HourRange) Closing() string {
	return fmt.Sprintf("%02d:00", r.Last+1)
}
