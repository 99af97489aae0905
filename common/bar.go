package common

import (
	"fmt"
	"strings"
)

// ProgressBar 在同一行刷新显示下载进度
func ProgressBar(currentSize, totalSize int64) {
	const barWidth = 50

	percent := float64(currentSize) / float64(totalSize) * 100
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("-", barWidth-filled)

	currentMB := float64(currentSize) / (1024 * 1024)
	totalMB := float64(totalSize) / (1024 * 1024)

	fmt.Printf("\r[%s] %.2f%% (%.2f/%.2f MB)", bar, percent, currentMB, totalMB)

	if currentSize >= totalSize {
		fmt.Println()
	}
}
