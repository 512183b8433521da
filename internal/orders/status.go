package orders

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusReturned   Status = "RETURNED"
	StatusCancelled  Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {StatusCompleted: true, StatusReturned: true},
	StatusCompleted:  {StatusReturned: true},
	StatusReturned:   {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsValid reports whether s is one of the known statuses.
func IsValid(s Status) bool {
	_, ok := validNext[s]
	return ok
}

// InFlightStatuses are the states the buyer-side poller watches: the seller
// is still moving the order forward and a change is worth a notification.
var InFlightStatuses = []Status{StatusProcessing, StatusShipped, StatusDelivered}

// IsTerminal reports whether no further transition is possible from s.
// RETURNED is terminal even though it can be entered from two predecessors.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}
