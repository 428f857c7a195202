package domain

// NotificationType categorizes a notification for the notification service.
type NotificationType string

const (
	NotificationTypeTransaction NotificationType = "TRANSACTION"
	NotificationTypeAccount     NotificationType = "ACCOUNT"
)

// Notification is a best-effort message to a customer. Delivery never
// influences the outcome of the operation that produced it.
type Notification struct {
	CustomerID string
	Title      string
	Message    string
	Type       NotificationType
}
