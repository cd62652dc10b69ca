package event

import (
	"time"

	"govisa/attr"
)

// pollTimeoutMS bounds each individual backend.WaitOnEvent call so the
// worker can notice a stop signal promptly; it is not the caller-visible
// event timeout, which is enforced separately in WaitOnEvent.
const pollTimeoutMS = 250

// pollBackoff is the pause between retries after a backend error, adapted
// from the teacher's measureWorker retry/backoff loop (services/hal/worker.go
// "trigger, then collect with retry and backoff"): a poll failure here is
// the analogue of a failed collect, and gets the same brief pause before
// the next attempt rather than a hot-spinning retry.
const pollBackoff = 200 * time.Millisecond

// ensurePoll starts the backend-poll goroutine for t if enabling either
// mechanism just turned this type on and nothing is already polling it.
// The goroutine's job mirrors measureWorker.Start: loop, call out, and fan
// the result to whatever is currently subscribed, rearming immediately
// since the "next due time" here is always "now" (there is no schedule to
// wait out between event polls, unlike between periodic measurements).
func (s *State) ensurePoll(t attr.EventType, pt *perType) {
	if pt.stopPoll != nil {
		return
	}
	if !pt.queueOn && !pt.handlerOn {
		return
	}
	stop := make(chan struct{})
	pt.stopPoll = func() { close(stop) }
	go s.runPoll(t, stop)
}

// runPoll is the fan-out loop: poll, and on a real (non-timeout) event
// deliver it to the queue (if enabled) and every registered handler (if
// enabled), the same "one publish, many subscribers" shape as the
// teacher's bus topic trie, generalized from topic-keyed subscribers to
// (type, mechanism)-keyed ones.
func (s *State) runPoll(t attr.EventType, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		res, err := s.be.WaitOnEvent(s.session, t, pollTimeoutMS)
		if err != nil {
			select {
			case <-stop:
				return
			case <-time.After(pollBackoff):
			}
			continue
		}
		if res.TimedOut {
			continue
		}
		s.deliver(t, queuedEvent{eventType: res.EventType, context: res.Context})
	}
}

// deliver fans one occurrence out to the queue and handler subscribers
// currently registered for t. A full queue drops the event rather than
// blocking the poll loop; spec §4.H only requires that queued events
// preserve order and eventual delivery up to TimeoutMS, not that the queue
// be unbounded.
func (s *State) deliver(t attr.EventType, ev queuedEvent) {
	s.mu.Lock()
	pt, ok := s.types[t]
	if !ok {
		s.mu.Unlock()
		return
	}
	var queue chan queuedEvent
	if pt.queueOn {
		queue = pt.queue
	}
	var handlers []*registeredHandler
	if pt.handlerOn {
		for _, h := range pt.handlers {
			if !h.viaBackend {
				handlers = append(handlers, h)
			}
		}
	}
	s.mu.Unlock()

	if queue != nil {
		select {
		case queue <- ev:
		default:
		}
	}
	for _, h := range handlers {
		safeInvoke(h.fn, ev.eventType, ev.context, h.userHandle)
	}
}
