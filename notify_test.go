package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sori/command"
	"sori/dispatch"
	"sori/transcriber"
)

func TestFanoutSkipsNil(t *testing.T) {
	a, b := newEventSink(), newEventSink()
	f := newFanout(a, nil, b)
	if len(f) != 2 {
		t.Fatalf("len = %d, want 2", len(f))
	}
	f.Status("hello")
	for i, s := range []*eventSink{a, b} {
		if got := s.Events(); len(got) != 1 || got[0] != "status:hello" {
			t.Errorf("sink %d events = %v", i, got)
		}
	}
}

func TestDescribeResult(t *testing.T) {
	cases := []struct {
		r    dispatch.Result
		want string
	}{
		{dispatch.Result{Text: "엔터", Kind: dispatch.KindEnter}, "⏎ enter"},
		{dispatch.Result{Text: "볼륨 올려", Kind: dispatch.KindCommand, Action: command.Action{Kind: command.VolumeUp, Amount: 10}}, "볼륨 올려 → volume_up(10)"},
		{dispatch.Result{Text: "안녕", Kind: dispatch.KindTyped, Transformed: "안녕"}, "안녕"},
		{dispatch.Result{Text: "안녕", Kind: dispatch.KindTyped, Transformed: "안녕하세요"}, "안녕 → 안녕하세요"},
		{dispatch.Result{Text: "크롬 열어", Kind: dispatch.KindCommand, Action: command.Open("Google Chrome"), Err: errors.New("not found")}, "크롬 열어 → open_app(Google Chrome) (failed: not found)"},
	}
	for _, c := range cases {
		if got := describeResult(c.r); got != c.want {
			t.Errorf("describeResult(%q) = %q, want %q", c.r.Text, got, c.want)
		}
	}
}

func TestAsyncSinkPreservesOrder(t *testing.T) {
	rec := newEventSink()
	a := newAsyncSink(rec)
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	a.ModeLine("m")
	a.Status("one")
	a.Status("two")
	a.Result(dispatch.Result{Kind: dispatch.KindTyped}, transcriber.Result{})
	waitFor(t, rec.results, "result")
	cancel()
	<-a.Done()

	want := []string{"mode:m", "status:one", "status:two", "result:typed"}
	got := rec.Events()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestAsyncSinkFlushesOnStop(t *testing.T) {
	rec := newEventSink()
	a := newAsyncSink(rec)
	a.Status("queued")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Run(ctx)
	if got := rec.Events(); len(got) != 1 {
		t.Errorf("events = %v, want the queued status", got)
	}
}

// blockingSink holds delivery until released.
type blockingSink struct {
	nopSink
	release chan struct{}
}

func (b *blockingSink) Status(string) { <-b.release }

func TestAsyncSinkDropsIngestEventsWhenFull(t *testing.T) {
	b := &blockingSink{release: make(chan struct{})}
	a := newAsyncSink(b)
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	a.Status("block")
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < asyncQueue+50; i++ {
		a.Level(0.1)
	}
	if a.dropped.Load() == 0 {
		t.Error("no level events dropped with a full queue")
	}
	close(b.release)
	cancel()
	<-a.Done()
}

// gatedSink records like eventSink but holds the first Status until released.
type gatedSink struct {
	*eventSink
	release chan struct{}
}

func (g *gatedSink) Status(text string) {
	<-g.release
	g.eventSink.Status(text)
}

func TestAsyncSinkKeepsOutcomesWhenFull(t *testing.T) {
	rec := newEventSink()
	g := &gatedSink{eventSink: rec, release: make(chan struct{})}
	a := newAsyncSink(g)
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	a.Status("block")
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < asyncQueue+50; i++ {
		a.Level(0.1)
	}

	returned := make(chan struct{})
	go func() {
		a.Busy()
		a.TooShort(time.Second)
		a.Error(errors.New("mic gone"))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("ingest events blocked on a full queue")
	}

	close(g.release)
	cancel()
	<-a.Done()
	want := "status:block,busy,too_short,error"
	if got := strings.Join(rec.Events(), ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestAsyncSinkSendAfterStop(t *testing.T) {
	a := newAsyncSink(nopSink{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < asyncQueue+10; i++ {
			a.Status("late")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Status blocked after the sink stopped")
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	c := newConsoleSink(&buf)
	c.ModeLine("[push_to_talk | wav | openai (ko) | 그대로]")
	c.Result(dispatch.Result{Text: "엔터", Kind: dispatch.KindEnter}, transcriber.Result{})
	c.NoSpeech()
	c.Error(errors.New("boom"))
	c.Level(0.5)

	want := "[push_to_talk | wav | openai (ko) | 그대로]\n⏎ enter\n(no speech detected)\nerror: boom\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestDesktopSink(t *testing.T) {
	var mu sync.Mutex
	var got []string
	sent := make(chan struct{}, 4)
	d := &desktopSink{notify: func(title, message string) error {
		mu.Lock()
		got = append(got, title+": "+message)
		mu.Unlock()
		sent <- struct{}{}
		return nil
	}}
	d.Error(errors.New("no network"))
	waitFor(t, sent, "notification")
	d.Level(0.2)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "sori error: no network" {
		t.Errorf("notifications = %v", got)
	}
}
