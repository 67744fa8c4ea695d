package mirror

import (
	"sync"
	"time"
)

// DefaultErrorTTL is how long an error stays on screen unless replaced.
const DefaultErrorTTL = 5 * time.Second

// Banner holds the single user-visible error message. Each Show re-arms the
// expiry timer; a timer belonging to an older message never clears a newer one.
type Banner struct {
	ttl      time.Duration
	onChange func()

	mu    sync.Mutex
	msg   string
	gen   uint64
	timer *time.Timer
}

func NewBanner(ttl time.Duration, onChange func()) *Banner {
	if ttl <= 0 {
		ttl = DefaultErrorTTL
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Banner{ttl: ttl, onChange: onChange}
}

func (b *Banner) Show(msg string) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.msg = msg
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(gen) })
	b.mu.Unlock()

	b.onChange()
}

// Dismiss clears the message right away.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	if b.msg == "" {
		b.mu.Unlock()
		return
	}
	b.gen++
	b.msg = ""
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.onChange()
}

func (b *Banner) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}

func (b *Banner) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.msg = ""
	b.timer = nil
	b.mu.Unlock()

	b.onChange()
}
