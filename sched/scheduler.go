package sched

import "sync"

// Scheduler is a strict-priority job queue. Dequeue order is priority
// level first (Visible before Margin before Thumbnails before Ocr), FIFO
// within one level. Submission order across levels never matters: an Ocr
// job submitted first still pops after a Visible job submitted later.
//
// The scheduler tracks queued jobs only. Once NextJob hands a job to a
// worker the scheduler forgets it except for statistics; cancelling
// in-flight work is the Registry's business.
//
// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	queues [priorityCount][]Job
	nextID JobID

	submitted uint64
	completed uint64
	cancelled uint64

	notify chan<- struct{}
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{nextID: 1}
}

// Notify registers a channel that receives a non-blocking signal on every
// Submit. A worker pool parks on it instead of polling an empty queue.
func (s *Scheduler) Notify(ch chan<- struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = ch
}

// Submit enqueues a job at the given priority and returns its id.
func (s *Scheduler) Submit(priority Priority, payload Payload) JobID {
	s.mu.Lock()

	if priority >= priorityCount {
		priority = PriorityOcr
	}

	id := s.nextID
	s.nextID++
	s.submitted++
	s.queues[priority] = append(s.queues[priority], Job{
		ID:       id,
		Priority: priority,
		Payload:  payload,
	})
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
	return id
}

// NextJob removes and returns the most urgent queued job: the oldest entry
// of the highest non-empty priority level. Returns ok=false when nothing
// is queued.
func (s *Scheduler) NextJob() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for level := range s.queues {
		q := s.queues[level]
		if len(q) == 0 {
			continue
		}
		job := q[0]
		s.queues[level] = q[1:]
		return job, true
	}
	return Job{}, false
}

// PeekNextJob returns the job NextJob would return, without removing it.
func (s *Scheduler) PeekNextJob() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for level := range s.queues {
		if q := s.queues[level]; len(q) > 0 {
			return q[0], true
		}
	}
	return Job{}, false
}

// CompleteJob records that a previously dequeued job finished. The
// scheduler only updates statistics; the job's output is the caller's
// concern.
func (s *Scheduler) CompleteJob(JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
}

// CancelJob removes a still-queued job. Returns false if the job is not
// queued (unknown, already running, or already done).
func (s *Scheduler) CancelJob(id JobID) bool {
	return s.CancelJobsIf(func(j Job) bool { return j.ID == id }) > 0
}

// CancelJobsIf removes every queued job matching the predicate and
// returns how many were removed.
func (s *Scheduler) CancelJobsIf(match func(Job) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeMatching(match)
}

// CancelPageJobs removes every queued job targeting the given page. File
// load jobs are never page-scoped and are left alone.
func (s *Scheduler) CancelPageJobs(page int) int {
	return s.CancelJobsIf(func(j Job) bool {
		p, ok := j.Payload.PageIndex()
		return ok && p == page
	})
}

// CancelAllExcept removes every queued job except those matching keep.
func (s *Scheduler) CancelAllExcept(keep func(Job) bool) int {
	return s.CancelJobsIf(func(j Job) bool { return !keep(j) })
}

// Clear removes every queued job, counting them as cancelled.
func (s *Scheduler) Clear() int {
	return s.CancelJobsIf(func(Job) bool { return true })
}

// removeMatching filters all level queues in place, preserving FIFO order
// of the survivors. Caller must hold s.mu.
func (s *Scheduler) removeMatching(match func(Job) bool) int {
	removed := 0
	for level := range s.queues {
		q := s.queues[level]
		kept := q[:0]
		for _, job := range q {
			if match(job) {
				removed++
				continue
			}
			kept = append(kept, job)
		}
		// Drop references past the new length so cancelled payloads
		// can be collected.
		for i := len(kept); i < len(q); i++ {
			q[i] = Job{}
		}
		s.queues[level] = kept
	}
	s.cancelled += uint64(removed)
	return removed
}

// QueueLen returns the number of queued jobs across all levels.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for level := range s.queues {
		total += len(s.queues[level])
	}
	return total
}

// Stats is a point-in-time snapshot of scheduler counters.
type Stats struct {
	// Submitted, Completed and Cancelled are lifetime counters.
	Submitted uint64
	Completed uint64
	Cancelled uint64

	// Queued is the current number of jobs waiting, with the per-level
	// breakdown in QueuedByLevel (indexed by Priority).
	Queued        int
	QueuedByLevel [4]int
}

// Pending returns submitted minus completed minus cancelled: jobs that
// are queued or currently running.
func (st Stats) Pending() uint64 {
	return st.Submitted - st.Completed - st.Cancelled
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Submitted: s.submitted,
		Completed: s.completed,
		Cancelled: s.cancelled,
	}
	for level := range s.queues {
		st.QueuedByLevel[level] = len(s.queues[level])
		st.Queued += len(s.queues[level])
	}
	return st
}
