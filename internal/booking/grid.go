package booking

// StandardGrid is the hourly slot grid offered to users: 08:00 to 22:00,
// with the 12:00-13:00 lunch hour closed.
var StandardGrid = hourlyGrid(8, 22, 12)

func hourlyGrid(open, close int, skip ...int) []Interval {
	closed := make(map[int]bool, len(skip))
	for _, h := range skip {
		closed[h] = true
	}

	var out []Interval
	for h := open; h < close; h++ {
		if closed[h] {
			continue
		}
		out = append(out, Interval{Start: Clock(h * 60), End: Clock((h + 1) * 60)})
	}
	return out
}

// FreeSlots returns the grid slots that overlap none of the booked intervals,
// in grid order.
func FreeSlots(grid, booked []Interval) []Interval {
	free := make([]Interval, 0, len(grid))
	for _, g := range grid {
		taken := false
		for _, b := range booked {
			if g.Overlaps(b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, g)
		}
	}
	return free
}
