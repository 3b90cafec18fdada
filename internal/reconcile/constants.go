package reconcile

// Log messages
const (
	LogMsgMissingComputed = "Missing parts computed"
	LogMsgSummaryComputed = "Inventory summary computed"
)
