package notify_test

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	mock_delivery "github.com/mcdev12/courier/go/internal/delivery/mock"
	"github.com/mcdev12/courier/go/internal/delivery/notify"
	"github.com/mcdev12/courier/go/internal/models"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctrl       *gomock.Controller
		poster     *mock_delivery.MockNotificationPoster
		dispatcher *notify.Dispatcher
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		poster = mock_delivery.NewMockNotificationPoster(ctrl)
		dispatcher = notify.NewDispatcher(poster, 0)
	})

	AfterEach(func() {
		dispatcher.Wait()
		ctrl.Finish()
	})

	It("hands every notice to each sink in order", func() {
		var mu sync.Mutex
		var a, b []models.NoticeKind
		dispatcher.AddSink(func(n models.Notice) { mu.Lock(); a = append(a, n.Kind); mu.Unlock() })
		dispatcher.AddSink(func(n models.Notice) { mu.Lock(); b = append(b, n.Kind); mu.Unlock() })

		dispatcher.Notify(models.Notice{Kind: models.NoticeKindNewOrders, Count: 2})
		dispatcher.Notify(models.Notice{Kind: models.NoticeKindError, Message: "boom"})

		Expect(a).To(Equal([]models.NoticeKind{models.NoticeKindNewOrders, models.NoticeKindError}))
		Expect(b).To(Equal(a))
	})

	It("records persistent notices with the notification API", func() {
		amount := decimal.RequireFromString("18.40")
		posted := make(chan models.DriverNotification, 1)
		bounded := make(chan bool, 1)
		poster.EXPECT().PostNotification(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, n models.DriverNotification) error {
				_, hasDeadline := ctx.Deadline()
				bounded <- hasDeadline
				posted <- n
				return nil
			})

		dispatcher.Notify(models.Notice{
			Kind:    models.NoticeKindTimeout,
			Title:   "Order missed",
			Message: "ORD-1 timed out",
			OrderID: "x1",
			Amount:  &amount,
			Persist: true,
		})

		var n models.DriverNotification
		Eventually(posted).Should(Receive(&n))
		Expect(n.Type).To(Equal("timeout"))
		Expect(n.OrderID).To(Equal("x1"))
		Expect(n.Amount.Equal(amount)).To(BeTrue())
		Expect(bounded).To(Receive(BeTrue()))
	})

	It("keeps transient notices local", func() {
		dispatcher.Notify(models.Notice{Kind: models.NoticeKindInfo, Title: "hello"})
	})

	It("swallows notification API failures", func() {
		poster.EXPECT().PostNotification(gomock.Any(), gomock.Any()).Return(errors.New("503"))

		Expect(func() {
			dispatcher.Notify(models.Notice{Kind: models.NoticeKindSuccess, OrderID: "x1", Persist: true})
			dispatcher.Wait()
		}).NotTo(Panic())
	})

	It("works without a poster", func() {
		d := notify.NewDispatcher(nil, 0)
		d.Notify(models.Notice{Kind: models.NoticeKindSuccess, Persist: true})
		d.Wait()
	})
})
