package enums

// BookingEventType labels entries in the append-only booking audit log.
type BookingEventType string

const (
	BookingEventCreated             BookingEventType = "booking_created"
	BookingEventRescheduled         BookingEventType = "booking_rescheduled"
	BookingEventItemsSelected       BookingEventType = "items_selected"
	BookingEventCustomerCanceled    BookingEventType = "customer_canceled"
	BookingEventProviderCanceled    BookingEventType = "provider_canceled"
	BookingEventCompleted           BookingEventType = "completed"
	BookingEventOrphanScheduling    BookingEventType = "orphan_scheduling_event"
	BookingEventOrphanCancellation  BookingEventType = "orphan_cancellation"
	BookingEventOrphanPayment       BookingEventType = "orphan_payment_event"
	BookingEventInconsistentItem    BookingEventType = "inconsistent_item_skipped"
	BookingEventNotificationFailure BookingEventType = "notification_failed"
)

// String implements fmt.Stringer.
func (b BookingEventType) String() string {
	return string(b)
}
