package heatmap_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scenescope/scenescope/internal/feed"
	"github.com/scenescope/scenescope/internal/heatmap"
	"github.com/scenescope/scenescope/internal/viewer"
)

// loopScheduler queues scheduled callbacks so specs can run them on the
// test goroutine, mimicking the single-threaded update loop.
type loopScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (s *loopScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
}

func (s *loopScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *loopScheduler) Drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
	}
}

type fakeSub struct {
	mu      sync.Mutex
	cancels int
}

func (s *fakeSub) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	return nil
}

func (s *fakeSub) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type fakeClient struct {
	mu       sync.Mutex
	items    map[string][]feed.Item
	loadErr  error
	loads    int
	subs     []*fakeSub
	handlers map[string]feed.Handlers
	// gate, when set, holds every Load until the channel closes, so specs
	// can interleave pushes with an in-flight fetch.
	gate chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		items:    make(map[string][]feed.Item),
		handlers: make(map[string]feed.Handlers),
	}
}

func (c *fakeClient) Load(_ context.Context, mode string) ([]feed.Item, error) {
	c.mu.Lock()
	c.loads++
	gate := c.gate
	err := c.loadErr
	items := c.items[mode]
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *fakeClient) Subscribe(mode string, h feed.Handlers) (feed.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := &fakeSub{}
	c.subs = append(c.subs, sub)
	c.handlers[mode] = h
	return sub, nil
}

func (c *fakeClient) Push(mode string, items []feed.Item) {
	c.mu.Lock()
	h := c.handlers[mode]
	c.mu.Unlock()
	if h.OnChange != nil {
		h.OnChange(items)
	}
}

func (c *fakeClient) Subs() []*fakeSub {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*fakeSub, len(c.subs))
	copy(out, c.subs)
	return out
}

var _ = Describe("heatmap extension", func() {
	var (
		v      *viewer.Viewer
		client *fakeClient
		sched  *loopScheduler
		ext    *heatmap.Extension
	)

	tempItems := []feed.Item{
		{TargetID: 1, Heat: 0.0},
		{TargetID: 2, Heat: 1.0},
	}

	BeforeEach(func() {
		v = viewer.New(viewer.DemoScene(), nil)
		client = newFakeClient()
		client.items["temperature"] = tempItems
		client.items["occupancy"] = []feed.Item{{TargetID: 3, Heat: 0.4}}
		sched = &loopScheduler{}
		ext = heatmap.New(heatmap.Options{
			Client:   client,
			Schedule: sched.Schedule,
		})
	})

	// settle waits for the in-flight fetch to land and runs queued
	// callbacks on this goroutine.
	settle := func() {
		Eventually(sched.Pending).Should(BeNumerically(">", 0))
		sched.Drain()
	}

	loadReady := func() {
		v.CreateToolbar()
		Expect(ext.Load(v)).To(Succeed())
		Expect(ext.State()).To(Equal(heatmap.StateUIReady))
	}

	Describe("lifecycle", func() {
		It("builds UI immediately when the toolbar exists", func() {
			v.CreateToolbar()
			Expect(ext.Load(v)).To(Succeed())
			Expect(ext.State()).To(Equal(heatmap.StateUIReady))
			_, ok := v.Toolbar().Group("heatmap")
			Expect(ok).To(BeTrue())
		})

		It("waits for toolbar creation and builds UI exactly once", func() {
			Expect(ext.Load(v)).To(Succeed())
			Expect(ext.State()).To(Equal(heatmap.StateUIPending))
			Expect(v.ListenerCount(viewer.EventToolbarCreated)).To(Equal(1))

			tb := v.CreateToolbar()
			Expect(ext.State()).To(Equal(heatmap.StateUIReady))
			Expect(v.ListenerCount(viewer.EventToolbarCreated)).To(BeZero(),
				"one-shot listener must deregister itself")

			// A replayed event must not rebuild the UI.
			v.Dispatch(viewer.ToolbarCreatedEvent{Toolbar: tb})
			group, _ := tb.Group("heatmap")
			Expect(group.Buttons).To(HaveLen(2))
		})

		It("rejects a second load", func() {
			loadReady()
			Expect(ext.Load(v)).NotTo(Succeed())
		})

		It("is terminal after unload", func() {
			loadReady()
			Expect(ext.Unload()).To(Succeed())
			Expect(ext.State()).To(Equal(heatmap.StateUnloaded))
			Expect(errors.Is(ext.Load(v), heatmap.ErrUnloaded)).To(BeTrue())
		})
	})

	Describe("toggling", func() {
		BeforeEach(loadReady)

		It("fetches, subscribes, and paints on enable", func() {
			ext.Toggle()
			Expect(ext.Params().Enabled).To(BeTrue())
			settle()

			tc, ok := v.ThemingColor(2)
			Expect(ok).To(BeTrue())
			Expect(tc.Alpha).To(Equal(0.5))
			Expect(client.Subs()).To(HaveLen(1))
		})

		It("clears colors on disable but keeps the subscription warm", func() {
			ext.Toggle()
			settle()
			ext.Toggle()

			_, ok := v.ThemingColor(2)
			Expect(ok).To(BeFalse())
			Expect(client.Subs()[0].Cancels()).To(BeZero())
		})

		It("is idempotent across on/off/on with an unchanged feed", func() {
			ext.Toggle()
			settle()
			first, _ := v.ThemingColor(2)

			ext.Toggle()
			ext.Toggle()
			settle()

			again, ok := v.ThemingColor(2)
			Expect(ok).To(BeTrue())
			Expect(again).To(Equal(first))
		})

		It("drops pushes that arrive while disabled", func() {
			ext.Toggle()
			settle()
			ext.Toggle()

			client.Push("temperature", tempItems)
			sched.Drain()

			_, ok := v.ThemingColor(2)
			Expect(ok).To(BeFalse())
		})

		It("leaves prior coloring in place when a fetch fails", func() {
			ext.Toggle()
			settle()
			before, _ := v.ThemingColor(2)

			client.mu.Lock()
			client.loadErr = errors.New("network down")
			client.mu.Unlock()

			ext.Toggle()
			ext.Toggle()
			settle()

			// Colors were cleared by disable; the failed fetch must not
			// paint anything new, and must not crash.
			_, ok := v.ThemingColor(2)
			Expect(ok).To(BeFalse())
			Expect(before.Alpha).To(Equal(0.5))
		})
	})

	Describe("subscriptions", func() {
		BeforeEach(loadReady)

		It("reuses the warm handle when re-enabling the same mode", func() {
			ext.Toggle()
			settle()
			ext.Toggle()
			ext.Toggle()
			settle()
			Expect(client.Subs()).To(HaveLen(1))
		})

		It("cancels the old handle before subscribing to a new mode", func() {
			ext.Toggle()
			settle()
			ext.SetMode(heatmap.ModeOccupancy)
			settle()

			subs := client.Subs()
			Expect(subs).To(HaveLen(2))
			Expect(subs[0].Cancels()).To(Equal(1))
			Expect(subs[1].Cancels()).To(BeZero())
		})

		It("drops a slow fetch that a push has superseded", func() {
			client.mu.Lock()
			client.gate = make(chan struct{})
			client.mu.Unlock()

			ext.Toggle()
			client.Push("temperature", []feed.Item{{TargetID: 9, Heat: 0.8}})
			sched.Drain()

			_, ok := v.ThemingColor(9)
			Expect(ok).To(BeTrue())

			// The enable-time fetch now resolves with the older item set.
			close(client.gate)
			settle()

			_, stale := v.ThemingColor(2)
			Expect(stale).To(BeFalse(), "superseded fetch must not paint")
			Expect(ext.LastItems()).To(HaveLen(1))
		})

		It("applies pushed updates for the current mode", func() {
			ext.Toggle()
			settle()

			client.Push("temperature", []feed.Item{{TargetID: 7, Heat: 0.9}})
			sched.Drain()

			_, ok := v.ThemingColor(7)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("parameters", func() {
		BeforeEach(loadReady)

		It("re-paints with new alpha when intensity changes while enabled", func() {
			ext.Toggle()
			settle()
			ext.SetIntensity(0.9)

			tc, _ := v.ThemingColor(2)
			Expect(tc.Alpha).To(Equal(0.9))
		})

		It("clamps intensity to [0,1]", func() {
			ext.SetIntensity(7)
			Expect(ext.Params().Intensity).To(Equal(1.0))
			ext.SetIntensity(-7)
			Expect(ext.Params().Intensity).To(Equal(0.0))
		})

		It("ignores unknown modes", func() {
			ext.SetMode("plasma")
			Expect(ext.Params().Mode).To(Equal(heatmap.ModeTemperature))
		})
	})

	Describe("unload", func() {
		BeforeEach(loadReady)

		It("releases toolbar UI, subscription, and theming state", func() {
			ext.Toggle()
			settle()
			Expect(ext.Unload()).To(Succeed())

			_, ok := v.Toolbar().Group("heatmap")
			Expect(ok).To(BeFalse())
			Expect(client.Subs()[0].Cancels()).To(Equal(1))
			_, themed := v.ThemingColor(2)
			Expect(themed).To(BeFalse())
			Expect(ext.Params()).To(Equal(heatmap.DefaultParams()))
		})

		It("cancels the handle at most once", func() {
			ext.Toggle()
			settle()
			Expect(ext.Unload()).To(Succeed())
			Expect(ext.Unload()).To(Succeed())
			Expect(client.Subs()[0].Cancels()).To(Equal(1))
		})

		It("ignores pushes delivered after unload", func() {
			ext.Toggle()
			settle()
			Expect(ext.Unload()).To(Succeed())

			client.Push("temperature", tempItems)
			sched.Drain()

			_, ok := v.ThemingColor(2)
			Expect(ok).To(BeFalse())
		})

		It("removes a pending toolbar listener", func() {
			bare := viewer.New(viewer.DemoScene(), nil)
			fresh := heatmap.New(heatmap.Options{Client: client, Schedule: sched.Schedule})
			Expect(fresh.Load(bare)).To(Succeed())
			Expect(fresh.State()).To(Equal(heatmap.StateUIPending))
			Expect(fresh.Unload()).To(Succeed())
			Expect(bare.ListenerCount(viewer.EventToolbarCreated)).To(BeZero())
		})
	})
})
