package availability

import "time"

// TimeBlock is a named part of the day. FirstHour and LastHour are both inclusive.
type TimeBlock struct {
	Name      string
	FirstHour int
	LastHour  int
}

var (
	Morning   = TimeBlock{Name: "morning", FirstHour: 7, LastHour: 11}
	Afternoon = TimeBlock{Name: "afternoon", FirstHour: 12, LastHour: 16}
	Evening   = TimeBlock{Name: "evening", FirstHour: 17, LastHour: 21}
)

// AllBlocks returns the blocks of a day in chronological order.
func AllBlocks() []TimeBlock {
	return []TimeBlock{Morning, Afternoon, Evening}
}

// BlockByName finds one of AllBlocks by its name.
func BlockByName(name string) (TimeBlock, bool) {
	for _, b := range AllBlocks() {
		if b.Name == name {
			return b, true
		}
	}
	return TimeBlock{}, false
}

func (b TimeBlock) Hours() []int {
	if b.LastHour < b.FirstHour {
		return nil
	}
	hours := make([]int, 0, b.LastHour-b.FirstHour+1)
	for h := b.FirstHour; h <= b.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Start is the instant the block begins on the day of date.
func (b TimeBlock) Start(date time.Time) time.Time {
	return atHour(date, b.FirstHour)
}

// End is the instant right after the last hour of the block on the day of date.
func (b TimeBlock) End(date time.Time) time.Time {
	return atHour(date, b.LastHour+1)
}

func atHour(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}
