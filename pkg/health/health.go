package health

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const DefaultCheckTimeout = 3 * time.Second

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency"`
}

type entry struct {
	checker  Checker
	critical bool
}

// CheckerRegistry runs every registered probe concurrently. A failing
// critical probe makes the service unhealthy; a failing optional one only
// degrades it, e.g. the queue being down while checkout keeps working.
type CheckerRegistry struct {
	mu      sync.RWMutex
	entries []entry
	timeout time.Duration
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{timeout: DefaultCheckTimeout}
}

// WithTimeout bounds each probe.
func (r *CheckerRegistry) WithTimeout(d time.Duration) *CheckerRegistry {
	r.timeout = d
	return r
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.add(entry{checker: checker, critical: true})
}

func (r *CheckerRegistry) RegisterOptional(checker Checker) {
	r.add(entry{checker: checker})
}

func (r *CheckerRegistry) add(e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	r.mu.RLock()
	entries := append([]entry(nil), r.entries...)
	r.mu.RUnlock()

	results := make([]CheckResult, len(entries))
	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			results[i] = r.probe(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	h := Health{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(entries)),
	}
	for i, e := range entries {
		res := results[i]
		h.Checks[e.checker.Name()] = res
		switch {
		case res.Status == StatusUnhealthy:
			h.Status = StatusUnhealthy
		case res.Status == StatusDegraded && h.Status == StatusHealthy:
			h.Status = StatusDegraded
		}
	}
	return h
}

func (r *CheckerRegistry) probe(ctx context.Context, e entry) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := e.checker.Check(ctx)
	res := CheckResult{
		Status:   StatusHealthy,
		Critical: e.critical,
		Latency:  time.Since(start).String(),
	}
	if err != nil {
		res.Message = err.Error()
		res.Status = StatusDegraded
		if e.critical {
			res.Status = StatusUnhealthy
		}
	}
	return res
}

// Handler serves the registry as JSON. Only unhealthy maps to 503.
func (r *CheckerRegistry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := r.Check(c.Request.Context())
		status := http.StatusOK
		if h.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, h)
	}
}

// FuncChecker adapts a probe function, e.g. a broker dial, to Checker.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) error
}

func NewFuncChecker(name string, check func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, check: check}
}

func (c *FuncChecker) Name() string {
	return c.name
}

func (c *FuncChecker) Check(ctx context.Context) error {
	return c.check(ctx)
}

func NewPostgreSQLChecker(db *sql.DB) *FuncChecker {
	return NewFuncChecker("postgresql", db.PingContext)
}

func NewRedisChecker(client redis.UniversalClient) *FuncChecker {
	return NewFuncChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func NewMongoDBChecker(client *mongo.Client) *FuncChecker {
	return NewFuncChecker("mongodb", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
}
