package morph

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-frame timing and draw-call metrics from the renderer.
type debugStats struct {
	collectTime time.Duration
	sortTime    time.Duration
	submitTime  time.Duration
	faces       int
	culled      int
	points      int
	lines       int
	drawCalls   int
}

func (s debugStats) total() time.Duration {
	return s.collectTime + s.sortTime + s.submitTime
}

// statsLogger accumulates frame stats and logs an average roughly once per
// interval. Only active when the session runs in debug mode.
type statsLogger struct {
	log      *zap.Logger
	interval float64

	elapsed float64
	frames  int
	sum     debugStats
	last    debugStats
}

func newStatsLogger(log *zap.Logger, interval float64) *statsLogger {
	if interval <= 0 {
		interval = 1
	}
	return &statsLogger{log: log, interval: interval}
}

// add records one frame and reports whether a log line was written.
func (l *statsLogger) add(dt float64, s debugStats) bool {
	l.elapsed += dt
	l.frames++
	l.sum.collectTime += s.collectTime
	l.sum.sortTime += s.sortTime
	l.sum.submitTime += s.submitTime
	l.last = s
	if l.elapsed < l.interval {
		return false
	}
	n := time.Duration(l.frames)
	l.log.Debug("frame stats",
		zap.Int("frames", l.frames),
		zap.Duration("collect", l.sum.collectTime/n),
		zap.Duration("sort", l.sum.sortTime/n),
		zap.Duration("submit", l.sum.submitTime/n),
		zap.Duration("total", l.sum.total()/n),
		zap.Int("faces", s.faces),
		zap.Int("culled", s.culled),
		zap.Int("points", s.points),
		zap.Int("grid_lines", s.lines),
		zap.Int("draw_calls", s.drawCalls),
	)
	l.elapsed = 0
	l.frames = 0
	l.sum = debugStats{}
	return true
}

// debugMaxTreeDepth bounds the vehicle hierarchy depth checked in debug mode.
const debugMaxTreeDepth = 8

// debugCheckTree panics on a disposed node anywhere under root and warns when
// the tree is deeper than expected.
func debugCheckTree(log *zap.Logger, root *Node) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n.disposed {
			panic(fmt.Sprintf("morph debug: disposed node %q in scene tree", n.Name))
		}
		if depth > debugMaxTreeDepth {
			log.Warn("scene tree deeper than expected",
				zap.String("node", n.Name), zap.Int("depth", depth), zap.Int("limit", debugMaxTreeDepth))
			return
		}
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(root, 1)
}
