package core

// Timer represents a scheduled main-loop task
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by WakeTime and runs the due ones from the
// main loop. Handlers that return SF_RESCHEDULE must move WakeTime forward.
type Scheduler struct {
	timerList *Timer
}

// Schedule adds a timer to the schedule
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	s.insertTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || before(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer whose WakeTime is at or before now
func (s *Scheduler) Dispatch(now uint32) {
	for {
		state := disableInterrupts()
		timer := s.timerList
		if timer == nil || before(now, timer.WakeTime) {
			restoreInterrupts(state)
			return
		}
		s.timerList = timer.Next
		timer.Next = nil
		restoreInterrupts(state)

		if timer.Handler(timer) == SF_RESCHEDULE {
			s.Schedule(timer)
		}
	}
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.timerList; t != nil; t = t.Next {
		n++
	}
	return n
}

// before compares millisecond timestamps across counter wraparound
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// Every returns a timer that calls fn every period milliseconds starting at
// start.
func Every(start, period uint32, fn func(now uint32)) *Timer {
	return &Timer{
		WakeTime: start,
		Handler: func(t *Timer) uint8 {
			fn(t.WakeTime)
			t.WakeTime += period
			return SF_RESCHEDULE
		},
	}
}
