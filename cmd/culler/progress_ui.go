package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/culler/internal/app/batch"
	"github.com/John-Robertt/culler/internal/config"
	"github.com/John-Robertt/culler/internal/domain"
)

var _ batch.Observer = (*progressUI)(nil)

// progressUI 是交互终端下批量操作的进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：batch 层只发事件，CLI 决定如何展示
// - keepalive：跨盘复制大 RAW 文件时长时间没有条目完成，也会定期输出一行
type progressUI struct {
	w   io.Writer
	eff config.EffectiveConfig

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	op    string
	total int
	done  int
	ok    int
	fail  int
	skip  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, eff config.EffectiveConfig) *progressUI {
	return &progressUI{
		w:                  w,
		eff:                eff,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(op string, total int) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.op = op
	p.total = total

	fmt.Fprintf(p.w, "[%s] culler %s\n", now.Format("15:04:05"), op)
	fmt.Fprintln(p.w, "配置（生效）:")
	if p.eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", p.eff.ConfigPath)
	}
	switch op {
	case domain.BatchTrash:
		fmt.Fprintf(p.w, "  trash: %s\n", formatTrashDir(p.eff.TrashDir))
	default:
		fmt.Fprintf(p.w, "  mode: %s\n", p.eff.ExportMode)
		fmt.Fprintf(p.w, "  operation: %s\n", p.eff.Operation)
	}
	fmt.Fprintf(p.w, "  files: %d\n\n", total)

	p.lastPrinted = time.Now()
	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnFileDone(idx, total int, res domain.FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch res.Status {
	case domain.FileStatusDone:
		p.ok++
		if res.Dst != "" {
			fmt.Fprintf(p.w, "[%d/%d] OK %s -> %s\n", idx, total, res.Src, res.Dst)
		} else {
			fmt.Fprintf(p.w, "[%d/%d] OK %s\n", idx, total, res.Src)
		}
	case domain.FileStatusSkipped:
		p.skip++
		fmt.Fprintf(p.w, "[%d/%d] SKIP %s (%s)\n", idx, total, res.Src, res.Message)
	case domain.FileStatusFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] FAIL %s\n", idx, total, truncate(res.Message, 160))
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s\n", idx, total, strings.ToUpper(res.Status), res.Src)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintln(p.w, p.progressLineLocked())
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (p *progressUI) progressLineLocked() string {
	return fmt.Sprintf("进度: done=%d/%d ok=%d fail=%d skip=%d elapsed=%s",
		p.done, p.total, p.ok, p.fail, p.skip, formatElapsed(time.Since(p.startedAt)),
	)
}

func formatTrashDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "系统回收站"
	}
	return dir
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
