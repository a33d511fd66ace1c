package pushsource_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mcdev12/courier/go/internal/delivery/pushsource"
	"github.com/mcdev12/courier/go/internal/models"
)

var _ = Describe("NATSSource", func() {
	It("scopes subjects to the driver", func() {
		Expect(pushsource.OrdersSubject("d-7")).To(Equal("drivers.d-7.orders.new"))
		Expect(pushsource.DecisionSubject("d-7")).To(Equal("drivers.d-7.orders.decision"))
	})

	It("requires a driver id", func() {
		_, err := pushsource.NewNATSSource(pushsource.DefaultNATSConfig("", ""))
		Expect(err).To(HaveOccurred())
	})

	It("routes bus payloads to the latest handler only", func() {
		source := pushsource.NewDetachedNATSSource("d-7")
		first, second := &orderSink{}, &orderSink{}

		source.OnPush(first.handle)
		source.Deliver([]byte(`{"_id":"p1","status":"pending"}`))
		source.OnPush(second.handle)
		source.Deliver([]byte(`{"_id":"p2","status":"pending"}`))
		source.Deliver([]byte(`{"status":"pending"}`))
		source.Deliver([]byte(`garbage`))

		Expect(first.keys()).To(Equal([]string{"p1"}))
		Expect(second.keys()).To(Equal([]string{"p2"}))
	})

	It("drops payloads when nothing is registered", func() {
		source := pushsource.NewDetachedNATSSource("d-7")
		Expect(func() { source.Deliver([]byte(`{"_id":"p1"}`)) }).NotTo(Panic())
	})

	It("refuses to publish decisions without a connection", func() {
		source := pushsource.NewDetachedNATSSource("d-7")
		Expect(source.SendReject(context.Background(), "p1")).To(MatchError(pushsource.ErrNotConnected))
	})

	It("decodes the pushed order payload", func() {
		source := pushsource.NewDetachedNATSSource("d-7")
		var got models.Order
		source.OnPush(func(o models.Order) { got = o })
		source.Deliver([]byte(`{"_id":"p1","orderId":"ORD-9","status":"pending","timerSeconds":45,"amount":"7.25"}`))

		Expect(got.OrderNumber).To(Equal("ORD-9"))
		Expect(got.TimerSeconds).To(Equal(45))
		Expect(got.Amount.String()).To(Equal("7.25"))
	})
})
