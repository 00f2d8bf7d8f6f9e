package domain

const (
	CompareListKey          = "compareList"
	CompareListMax          = 3
	CompareListUpdatedEvent = "compare-list-updated"
)

type CompareList struct {
	Items          []int64 `json:"items"`
	Count          int     `json:"count"`
	Max            int     `json:"max"`
	RemainingSlots int     `json:"remaining_slots"`
	Full           bool    `json:"full"`
}
