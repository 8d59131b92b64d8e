package jobs

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper drops expired entries as of now and reports how many it dropped.
type Sweeper interface {
	Sweep(now time.Time) int
}

// PreviewSweepTask clears preview hand-offs that were never taken.
type PreviewSweepTask struct {
	channel Sweeper
	cron    string
	now     func() time.Time
}

func NewPreviewSweepTask(interval string, channel Sweeper) *PreviewSweepTask {
	return &PreviewSweepTask{
		channel: channel,
		cron:    interval,
		now:     time.Now,
	}
}

func (p *PreviewSweepTask) ID() string {
	return "preview_sweep"
}

func (p *PreviewSweepTask) Schedule() string {
	return p.cron
}

func (p *PreviewSweepTask) Run() {
	if n := p.channel.Sweep(p.now()); n > 0 {
		logrus.Infof("swept %d expired preview hand-offs", n)
	}
}
