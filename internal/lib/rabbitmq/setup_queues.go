package rabbitmq

// Ключи маршрутизации доменных событий.
const (
	RoutingSubscriptionActivated = "subscription.activated"
	RoutingReceiptUploaded       = "receipt.uploaded"
)

// QueueConfig очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди, которые читают воркеры уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.subscription", RoutingKey: RoutingSubscriptionActivated},
		{QueueName: "notifications.receipts", RoutingKey: RoutingReceiptUploaded},
	}
}
