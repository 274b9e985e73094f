package dispatcher

// Waker is a non-blocking wake hint channel. The admission path calls Wake
// after enqueueing; the worker drains C between poll ticks. A full channel
// drops the hint, which is fine because the poll will find the job anyway.
type Waker struct {
	ch chan struct{}
}

func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *Waker) C() <-chan struct{} {
	return w.ch
}
