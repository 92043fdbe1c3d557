package morph

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatsLoggerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newStatsLogger(zap.New(core), 0.5)

	frame := debugStats{collectTime: 2 * time.Millisecond, faces: 40, drawCalls: 3}
	for i := 0; i < 4; i++ {
		if l.add(0.1, frame) {
			t.Fatalf("logged after %d frames", i+1)
		}
	}
	if !l.add(0.1, frame) {
		t.Fatal("no log line once the interval elapsed")
	}
	entries := logs.FilterMessage("frame stats").All()
	if len(entries) != 1 {
		t.Fatalf("%d log lines, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["frames"] != int64(5) || ctx["faces"] != int64(40) || ctx["draw_calls"] != int64(3) {
		t.Errorf("context = %v", ctx)
	}
	if ctx["collect"] != 2*time.Millisecond {
		t.Errorf("collect average = %v, want 2ms", ctx["collect"])
	}
	if l.frames != 0 || l.elapsed != 0 {
		t.Error("accumulators not reset after logging")
	}
}

func TestStatsLoggerDefaultInterval(t *testing.T) {
	if l := newStatsLogger(zap.NewNop(), 0); l.interval != 1 {
		t.Errorf("interval = %v, want 1", l.interval)
	}
}

func TestDebugStatsTotal(t *testing.T) {
	s := debugStats{collectTime: 1, sortTime: 2, submitTime: 3}
	if s.total() != 6 {
		t.Errorf("total = %v, want 6", s.total())
	}
}

func TestDebugCheckTreeDisposedPanics(t *testing.T) {
	root := NewGroup("root")
	child := NewGroup("ghost")
	root.AddChild(child)
	child.disposed = true

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for a disposed node")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, `"ghost"`) {
			t.Errorf("panic message %q does not name the node", msg)
		}
	}()
	debugCheckTree(zap.NewNop(), root)
}

func TestDebugCheckTreeDepthWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	root := NewGroup("n0")
	n := root
	for i := 1; i <= debugMaxTreeDepth+2; i++ {
		c := NewGroup(fmt.Sprintf("n%d", i))
		n.AddChild(c)
		n = c
	}
	debugCheckTree(zap.New(core), root)
	if logs.Len() != 1 {
		t.Fatalf("%d warnings, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["depth"]; got != int64(debugMaxTreeDepth+1) {
		t.Errorf("depth = %v, want %d", got, debugMaxTreeDepth+1)
	}
}

func TestDebugCheckTreeSessionClean(t *testing.T) {
	s, _, logs := newTestSession(t)
	debugCheckTree(s.log, s.Root())
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Errorf("%d warnings for the default vehicle", n)
	}
}
