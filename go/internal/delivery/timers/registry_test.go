package timers_test

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/mcdev12/courier/go/internal/delivery/timers"
)

type recorder struct {
	mu     sync.Mutex
	events []timers.Event
}

func (r *recorder) listen(ev timers.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) of(orderID string, typ timers.EventType) []timers.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timers.Event
	for _, ev := range r.events {
		if ev.OrderID == orderID && ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) lastTick(orderID string) int {
	ticks := r.of(orderID, timers.EventTimerTick)
	if len(ticks) == 0 {
		return -1
	}
	return ticks[len(ticks)-1].Remaining
}

func (r *recorder) all(orderID string) []timers.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timers.Event
	for _, ev := range r.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out
}

var _ = Describe("Registry", func() {
	var (
		clock    fakeClock
		registry *timers.Registry
		events   *recorder
		expired  *sync.Map
	)

	countExpired := func(id string) int64 {
		v, ok := expired.Load(id)
		if !ok {
			return 0
		}
		return atomic.LoadInt64(v.(*int64))
	}
	onExpire := func(id string) {
		v, _ := expired.LoadOrStore(id, new(int64))
		atomic.AddInt64(v.(*int64), 1)
	}

	BeforeEach(func() {
		clock = clockwork.NewFakeClock()
		registry = timers.NewRegistry(clock)
		events = &recorder{}
		expired = &sync.Map{}
		registry.Subscribe(events.listen)
	})

	AfterEach(func() {
		registry.Close()
	})

	Context("starting timers", func() {
		It("is idempotent for the same order", func() {
			Expect(registry.Start("A", 30, onExpire)).To(BeTrue())
			Expect(registry.Start("A", 30, onExpire)).To(BeFalse())

			Expect(registry.Live()).To(Equal([]string{"A"}))
			Expect(events.of("A", timers.EventTimerStarted)).To(HaveLen(1))

			clock.Advance(time.Second)
			Eventually(func() int { return events.lastTick("A") }).Should(Equal(29))
			Expect(registry.Remaining("A", -1)).To(Equal(29))
		})

		It("falls back to the default duration for non-positive totals", func() {
			Expect(registry.Start("A", 0, nil)).To(BeTrue())
			entry, ok := registry.Get("A")
			Expect(ok).To(BeTrue())
			Expect(entry.Total).To(Equal(timers.DefaultOfferSeconds))
			Expect(entry.Remaining).To(Equal(timers.DefaultOfferSeconds))
		})

		It("ignores empty ids", func() {
			Expect(registry.Start("", 30, nil)).To(BeFalse())
			Expect(registry.Live()).To(BeEmpty())
		})

		It("returns the caller default before a timer exists", func() {
			Expect(registry.Remaining("missing", 30)).To(Equal(30))
		})
	})

	Context("adopting timers", func() {
		It("hands a running countdown to the new owner without resetting it", func() {
			var adopted int64
			registry.Start("A", 30, onExpire)
			advanceSeconds(clock, 10)

			Expect(registry.Adopt("A", 60, func(string) { atomic.AddInt64(&adopted, 1) })).To(BeTrue())
			Expect(registry.Remaining("A", -1)).To(Equal(20))
			Expect(events.of("A", timers.EventTimerStarted)).To(HaveLen(1))

			advanceSeconds(clock, 20)
			Eventually(func() int64 { return atomic.LoadInt64(&adopted) }).Should(Equal(int64(1)))
			Consistently(func() int64 { return countExpired("A") }, 100*time.Millisecond).Should(BeZero())
		})

		It("arms a countdown when none is running", func() {
			Expect(registry.Adopt("A", 15, onExpire)).To(BeTrue())
			Expect(registry.Remaining("A", -1)).To(Equal(15))
		})

		It("is refused for settled orders", func() {
			Expect(registry.Settle("A")).To(BeTrue())
			Expect(registry.Adopt("A", 15, onExpire)).To(BeFalse())
			Expect(registry.IsLive("A")).To(BeFalse())
		})
	})

	Context("counting down", func() {
		It("decrements by exactly one per second", func() {
			registry.Start("A", 10, onExpire)

			for want := 9; want >= 1; want-- {
				clock.Advance(time.Second)
				Eventually(func() int { return events.lastTick("A") }).Should(Equal(want))
			}

			ticks := events.of("A", timers.EventTimerTick)
			Expect(ticks).To(HaveLen(9))
			for i := 1; i < len(ticks); i++ {
				Expect(ticks[i-1].Remaining - ticks[i].Remaining).To(Equal(1))
			}
		})

		It("expires once and refuses to restart the same instance", func() {
			registry.Start("A", 30, onExpire)
			advanceSeconds(clock, 30)

			Expect(registry.Remaining("A", -1)).To(Equal(0))
			Eventually(func() int64 { return countExpired("A") }).Should(Equal(int64(1)))
			Expect(events.of("A", timers.EventTimerExpired)).To(HaveLen(1))
			Expect(registry.IsLive("A")).To(BeFalse())
			Expect(registry.IsSettled("A")).To(BeTrue())

			Expect(registry.Start("A", 30, onExpire)).To(BeFalse())
			advanceSeconds(clock, 60)
			Consistently(func() int64 { return countExpired("A") }, 100*time.Millisecond).Should(Equal(int64(1)))
		})

		It("publishes the expired state before the handler runs", func() {
			seen := make(chan int, 1)
			registry.Start("A", 2, func(id string) {
				seen <- len(events.of(id, timers.EventTimerExpired))
			})
			advanceSeconds(clock, 2)
			Eventually(seen).Should(Receive(Equal(1)))
		})

		It("can be restarted after the order is forgotten", func() {
			registry.Start("A", 1, onExpire)
			clock.Advance(time.Second)
			Eventually(func() int64 { return countExpired("A") }).Should(Equal(int64(1)))

			registry.Forget("A")
			Expect(registry.Start("A", 30, onExpire)).To(BeTrue())
			Expect(registry.Remaining("A", -1)).To(Equal(30))
		})

		It("keeps independent countdowns per order", func() {
			registry.Start("X4", 5, onExpire)
			registry.Start("X5", 30, onExpire)

			advanceSeconds(clock, 5)
			Eventually(func() int64 { return countExpired("X4") }).Should(Equal(int64(1)))

			Expect(registry.Remaining("X5", -1)).To(Equal(25))
			Expect(registry.IsLive("X5")).To(BeTrue())
			Expect(countExpired("X5")).To(Equal(int64(0)))
		})

		It("survives a panicking expiry handler", func() {
			registry.Start("A", 1, func(string) { panic("boom") })
			registry.Start("B", 3, onExpire)

			advanceSeconds(clock, 3)
			Eventually(func() int64 { return countExpired("B") }).Should(Equal(int64(1)))
		})
	})

	Context("clearing", func() {
		It("is terminal for the countdown", func() {
			registry.Start("A", 30, onExpire)
			advanceSeconds(clock, 5)
			Expect(registry.Clear("A")).To(BeTrue())
			before := len(events.all("A"))

			advanceSeconds(clock, 60)
			Consistently(func() int { return len(events.all("A")) }, 100*time.Millisecond).Should(Equal(before))
			Expect(countExpired("A")).To(Equal(int64(0)))
			Expect(registry.Remaining("A", -1)).To(Equal(-1))
		})

		It("is idempotent for unknown ids", func() {
			Expect(registry.Clear("nope")).To(BeFalse())
			Expect(registry.Clear("nope")).To(BeFalse())
		})

		It("allows a fresh full-length start", func() {
			registry.Start("A", 30, onExpire)
			advanceSeconds(clock, 10)
			registry.Clear("A")

			Expect(registry.Start("A", 30, onExpire)).To(BeTrue())
			Expect(registry.Remaining("A", -1)).To(Equal(30))
		})

		It("clears every live countdown", func() {
			registry.Start("A", 30, onExpire)
			registry.Start("B", 30, onExpire)
			Expect(registry.ClearAll()).To(Equal(2))
			Expect(registry.Live()).To(BeEmpty())
		})
	})

	Context("settling", func() {
		It("grants the terminal action exactly once", func() {
			registry.Start("A", 30, onExpire)
			advanceSeconds(clock, 18)

			Expect(registry.Settle("A")).To(BeTrue())
			Expect(registry.Settle("A")).To(BeFalse())
			Expect(registry.IsLive("A")).To(BeFalse())

			settled := events.of("A", timers.EventTimerSettled)
			Expect(settled).To(HaveLen(1))
			Expect(settled[0].Remaining).To(Equal(12))

			advanceSeconds(clock, 30)
			Consistently(func() int64 { return countExpired("A") }, 100*time.Millisecond).Should(BeZero())
		})

		It("is refused after expiry", func() {
			registry.Start("A", 1, onExpire)
			clock.Advance(time.Second)
			Eventually(func() int64 { return countExpired("A") }).Should(Equal(int64(1)))
			Expect(registry.Settle("A")).To(BeFalse())
		})

		It("works for orders without a countdown", func() {
			Expect(registry.Settle("A")).To(BeTrue())
			Expect(registry.Start("A", 30, onExpire)).To(BeFalse())
		})
	})

	It("stops everything on close", func() {
		registry.Start("A", 30, onExpire)
		registry.Start("B", 30, onExpire)
		registry.Close()

		Expect(registry.Live()).To(BeEmpty())
		Expect(registry.Start("C", 30, onExpire)).To(BeFalse())
	})
})

var _ = Describe("TierFor", func() {
	table.DescribeTable("maps the remaining ratio onto a tier",
		func(remaining, total int, want timers.Tier) {
			Expect(timers.TierFor(remaining, total)).To(Equal(want))
		},
		table.Entry("full", 30, 30, timers.TierSafe),
		table.Entry("just above half", 16, 30, timers.TierSafe),
		table.Entry("exactly half", 15, 30, timers.TierWarning),
		table.Entry("just above a quarter", 8, 30, timers.TierWarning),
		table.Entry("below a quarter", 7, 30, timers.TierCritical),
		table.Entry("zero", 0, 30, timers.TierCritical),
		table.Entry("no total", 5, 0, timers.TierCritical),
	)

	It("reports the entry tier", func() {
		Expect(timers.TimerEntry{Remaining: 10, Total: 20}.Tier()).To(Equal(timers.TierWarning))
	})
})
