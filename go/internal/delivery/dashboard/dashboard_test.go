package dashboard_test

import (
	"context"
	"sync"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/dashboard"
	"github.com/mcdev12/courier/go/internal/delivery/feed"
	mock_delivery "github.com/mcdev12/courier/go/internal/delivery/mock"
	"github.com/mcdev12/courier/go/internal/delivery/push"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

var _ = Describe("Dashboard", func() {
	var (
		ctx        context.Context
		ctrl       *gomock.Controller
		api        *mock_delivery.MockOrderAPI
		clock      fakeClock
		registry   *timers.Registry
		reconciler *feed.Reconciler
		relay      *push.Relay
		dash       *dashboard.Dashboard
		servedMu   sync.Mutex
		served     []models.Order
	)

	serve := func(orders ...models.Order) {
		servedMu.Lock()
		defer servedMu.Unlock()
		served = orders
	}

	BeforeEach(func() {
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		api = mock_delivery.NewMockOrderAPI(ctrl)
		clock = clockwork.NewFakeClock()
		registry = timers.NewRegistry(clock)
		reconciler = feed.NewReconciler(api, registry, nil, clock, feed.DefaultConfig())
		relay = push.NewRelay(api, registry, nil)
		dash = dashboard.New(reconciler, relay, registry, clock)

		serve(models.Order{ID: "a", Status: "pending"}, models.Order{ID: "b", Status: "accepted"})
		api.EXPECT().FetchOrders(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, models.Bucket) ([]models.Order, error) {
				servedMu.Lock()
				defer servedMu.Unlock()
				return append([]models.Order(nil), served...), nil
			}).AnyTimes()
	})

	AfterEach(func() {
		registry.Close()
		ctrl.Finish()
	})

	It("routes decisions on the pushed order to the relay", func() {
		relay.OnOrderPush(models.Order{ID: "p1", Status: "pending", TimerSeconds: 20})
		api.EXPECT().SetOrderStatus(gomock.Any(), "p1", models.OrderStatusAccepted).Return(nil)

		Expect(dash.Accept(ctx, "p1")).To(Succeed())
		_, showing := relay.Current()
		Expect(showing).To(BeFalse())
	})

	It("routes decisions on polled orders to the feed", func() {
		Expect(dash.Refresh(ctx)).To(Succeed())
		api.EXPECT().SetOrderStatus(gomock.Any(), "a", models.OrderStatusCancelled).
			DoAndReturn(func(context.Context, string, models.OrderStatus) error {
				serve(models.Order{ID: "a", Status: "cancelled"}, models.Order{ID: "b", Status: "accepted"})
				return nil
			})

		Expect(dash.Reject(ctx, "a")).To(Succeed())
		Expect(reconciler.NewOrders()).To(BeEmpty())
	})

	It("reports orders it does not know", func() {
		err := dash.Accept(ctx, "ghost")
		Expect(err).To(MatchError(delivery.ErrUnknownOrder))
	})

	It("switches between known tabs only", func() {
		Expect(dash.SwitchTab(ctx, delivery.TabOngoing)).To(Succeed())
		Expect(reconciler.ActiveTab()).To(Equal(delivery.TabOngoing))
		Expect(dash.SwitchTab(ctx, "archive")).To(HaveOccurred())
		Expect(reconciler.ActiveTab()).To(Equal(delivery.TabOngoing))
	})

	It("renders countdowns and tiers for every shown order", func() {
		Expect(dash.Refresh(ctx)).To(Succeed())
		relay.OnOrderPush(models.Order{ID: "p1", Status: "pending", TimerSeconds: 20})
		advanceSeconds(clock, 10)

		state := dash.State()
		Expect(state.Tab).To(Equal(delivery.TabNew))
		Expect(state.NewOrders).To(HaveLen(1))
		Expect(state.NewOrders[0].Key()).To(Equal("a"))
		Expect(state.NewOrders[0].Remaining).To(Equal(20))
		Expect(state.NewOrders[0].Total).To(Equal(30))
		Expect(state.NewOrders[0].Tier).To(Equal(timers.TierSafe))

		Expect(state.OngoingOrders).To(HaveLen(1))
		Expect(state.OngoingOrders[0].Key()).To(Equal("b"))

		Expect(state.Pushed).NotTo(BeNil())
		Expect(state.Pushed.Remaining).To(Equal(10))
		Expect(state.Pushed.Tier).To(Equal(timers.TierWarning))
		Expect(state.GeneratedAt).To(Equal(clock.Now()))
	})

	It("renders an empty dashboard", func() {
		state := dash.State()
		Expect(state.NewOrders).NotTo(BeNil())
		Expect(state.NewOrders).To(BeEmpty())
		Expect(state.OngoingOrders).To(BeEmpty())
		Expect(state.Pushed).To(BeNil())
	})
})
