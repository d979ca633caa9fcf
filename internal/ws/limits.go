package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	bucketSweepInterval = 5 * time.Minute
	bucketIdleTimeout   = 10 * time.Minute
)

// LimitReason labels the admission check that rejected a connection.
type LimitReason string

const (
	LimitInstanceCap LimitReason = "instance_cap"
	LimitPerIPCap    LimitReason = "per_ip_cap"
	LimitDialRate    LimitReason = "dial_rate"
)

// ConnLimiter gates websocket admission on this instance: a hard cap on
// total sockets, a concurrency cap per client IP, and a token bucket on
// each IP's dial rate. Idle rate buckets are swept periodically so the
// map does not grow with every IP ever seen.
type ConnLimiter struct {
	clock clockwork.Clock

	maxTotal int64
	total    atomic.Int64

	mu       sync.Mutex
	maxPerIP int
	perIP    map[string]int

	dialRate  rate.Limit
	dialBurst int
	buckets   map[string]*dialBucket
	sweepAt   time.Time
}

type dialBucket struct {
	bucket   *rate.Limiter
	lastDial time.Time
}

// NewConnLimiter builds a limiter with the given caps. dialRate is sustained
// new connections per second per IP; dialBurst is the bucket size.
func NewConnLimiter(clock clockwork.Clock, maxTotal int64, maxPerIP int, dialRate float64, dialBurst int) *ConnLimiter {
	return &ConnLimiter{
		clock:     clock,
		maxTotal:  maxTotal,
		maxPerIP:  maxPerIP,
		perIP:     make(map[string]int),
		dialRate:  rate.Limit(dialRate),
		dialBurst: dialBurst,
		buckets:   make(map[string]*dialBucket),
		sweepAt:   clock.Now().Add(bucketSweepInterval),
	}
}

// Acquire admits one connection from ip, or reports the limit that refused
// it. Checks run cheapest first: dial rate, then the instance cap, then the
// per-IP cap. A per-IP refusal rolls the instance slot back.
func (l *ConnLimiter) Acquire(ip string) (bool, LimitReason) {
	if !l.allowDial(ip) {
		return false, LimitDialRate
	}

	if !l.acquireTotal() {
		return false, LimitInstanceCap
	}

	if !l.acquirePerIP(ip) {
		l.total.Add(-1)
		return false, LimitPerIPCap
	}

	return true, ""
}

// Release returns the slots taken by a successful Acquire for ip.
func (l *ConnLimiter) Release(ip string) {
	l.mu.Lock()
	if count := l.perIP[ip]; count > 0 {
		if count == 1 {
			delete(l.perIP, ip)
		} else {
			l.perIP[ip] = count - 1
		}
	}
	l.mu.Unlock()

	l.total.Add(-1)
}

// Total reports the connections currently admitted on this instance.
func (l *ConnLimiter) Total() int64 {
	return l.total.Load()
}

// CountForIP reports the connections currently admitted for ip.
func (l *ConnLimiter) CountForIP(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}

// ActiveBuckets reports how many per-IP rate buckets are held.
func (l *ConnLimiter) ActiveBuckets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *ConnLimiter) acquireTotal() bool {
	for {
		current := l.total.Load()
		if current >= l.maxTotal {
			return false
		}
		if l.total.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *ConnLimiter) acquirePerIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	return true
}

func (l *ConnLimiter) allowDial(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.sweepAt) {
		l.sweepBuckets(now)
		l.sweepAt = now.Add(bucketSweepInterval)
	}

	entry, ok := l.buckets[ip]
	if !ok {
		entry = &dialBucket{bucket: rate.NewLimiter(l.dialRate, l.dialBurst)}
		l.buckets[ip] = entry
	}
	entry.lastDial = now

	return entry.bucket.AllowN(now, 1)
}

// sweepBuckets drops rate buckets idle past the timeout. Caller holds mu.
func (l *ConnLimiter) sweepBuckets(now time.Time) {
	cutoff := now.Add(-bucketIdleTimeout)
	for ip, entry := range l.buckets {
		if entry.lastDial.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
