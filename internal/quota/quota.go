// Package quota enforces the daily generation allowance of the free plan.
package quota

import (
	"errors"
	"sync"
	"time"
)

const DefaultFreeDailyLimit = 2

var ErrLimitReached = errors.New("daily generation limit reached")

type Usage struct {
	Day   string `json:"day"`
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
	// Unlimited is true for the pro plan; Limit is meaningless then.
	Unlimited bool `json:"unlimited"`
}

func (u Usage) Remaining() int {
	if u.Unlimited {
		return -1
	}
	if r := u.Limit - u.Used; r > 0 {
		return r
	}
	return 0
}

type Options struct {
	FreeDailyLimit int
	Now            func() time.Time
}

type Limiter struct {
	mu    sync.Mutex
	limit int
	now   func() time.Time
	usage map[string]dayCount
}

type dayCount struct {
	day   string
	count int
}

func New(opts Options) *Limiter {
	limit := opts.FreeDailyLimit
	if limit <= 0 {
		limit = DefaultFreeDailyLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		limit: limit,
		now:   now,
		usage: make(map[string]dayCount),
	}
}

// Check reports the user's usage for today and ErrLimitReached when a free
// user has no generations left.
func (l *Limiter) Check(userID string, pro bool) (Usage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.usageLocked(userID, pro)
	if !u.Unlimited && u.Used >= u.Limit {
		return u, ErrLimitReached
	}
	return u, nil
}

// Reserve takes one of today's generations for the user before the run
// starts. The returned release keeps the slot when commit is true and hands
// it back otherwise. Release is idempotent. A free user without slots gets
// ErrLimitReached and a nil release.
func (l *Limiter) Reserve(userID string, pro bool) (Usage, func(commit bool), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.usageLocked(userID, pro)
	if !u.Unlimited && u.Used >= u.Limit {
		return u, nil, ErrLimitReached
	}

	c := dayCount{day: u.Day, count: u.Used + 1}
	l.usage[userID] = c

	var once sync.Once
	release := func(commit bool) {
		once.Do(func() {
			if !commit {
				l.giveBack(userID, c.day)
			}
		})
	}
	return l.usageLocked(userID, pro), release, nil
}

func (l *Limiter) giveBack(userID, day string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A slot reserved yesterday is already gone with yesterday's count.
	if c, ok := l.usage[userID]; ok && c.day == day && c.count > 0 {
		c.count--
		l.usage[userID] = c
	}
}

func (l *Limiter) usageLocked(userID string, pro bool) Usage {
	today := l.today()
	used := 0
	if c, ok := l.usage[userID]; ok && c.day == today {
		used = c.count
	}
	return Usage{Day: today, Used: used, Limit: l.limit, Unlimited: pro}
}

// today is the UTC calendar day.
func (l *Limiter) today() string {
	return l.now().UTC().Format(time.DateOnly)
}
