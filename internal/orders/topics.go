package orders

const (
	TopicOrderPlaced = "order.placed"
	TopicOrderStatus = "order.status"
)

// Partition key = order id so all events of one order stay ordered.
func PartitionKey(orderID int64) []byte {
	return []byte(formatID(orderID))
}
