package exifmeta

import (
	"fmt"
	"math"
)

// FormatShutterSpeed 把曝光时间有理数格式化为展示值。
//
// 规则：
// - den == 0：无效
// - 值 >= 1 秒："2.0s"
// - 值 < 1 秒：单位分数 "1/250"，分母为 round(den/num)；num == 0 无效
func FormatShutterSpeed(num, den int64) (string, bool) {
	if den == 0 {
		return "", false
	}
	v := float64(num) / float64(den)
	if v >= 1.0 {
		return fmt.Sprintf("%.1fs", v), true
	}
	if num <= 0 {
		return "", false
	}
	return fmt.Sprintf("1/%d", int64(math.Round(float64(den)/float64(num)))), true
}

// FormatAperture 把 F 值有理数格式化为 "f/2.8"。
func FormatAperture(num, den int64) (string, bool) {
	if den == 0 {
		return "", false
	}
	return fmt.Sprintf("f/%.1f", float64(num)/float64(den)), true
}

// FormatFocalLength 把焦距有理数四舍五入为整数毫米，例如 "50mm"。
func FormatFocalLength(num, den int64) (string, bool) {
	if den == 0 {
		return "", false
	}
	return fmt.Sprintf("%dmm", int64(math.Round(float64(num)/float64(den)))), true
}
