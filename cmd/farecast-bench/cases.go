// README: Bench cases: environment, API contract, fare flow, stream, concurrency and load checks.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"farecast/internal/modules/prediction"
	"farecast/internal/modules/session"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

var (
	midtown     = map[string]any{"lat": 40.7484, "lon": -73.9876}
	eastVillage = map[string]any{"lat": 40.7306, "lon": -73.9352}
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: checkPostgres},
		{Name: "Env: Redis connect", Run: checkRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: checkTables},

		statusCase("API: liveness", http.MethodGet, "/health", nil, http.StatusOK),
		statusCase("API: predictor readiness", http.MethodGet, "/readyz", nil, http.StatusOK),
		statusCase("API: create session", http.MethodPost, "/api/sessions", nil, http.StatusCreated),
		statusCase("API: unknown session -> 404", http.MethodGet, "/api/sessions/00000000-0000-4000-8000-000000000000", nil, http.StatusNotFound),
		statusCase("API: malformed id -> 400", http.MethodGet, "/api/sessions/abc", nil, http.StatusBadRequest),

		sessionCase("Trip: missing lon -> 400", http.MethodPost, "/locations", map[string]any{"lat": 40.7}, http.StatusBadRequest),
		sessionCase("Trip: 7 passengers -> 400", http.MethodPut, "/passengers", map[string]any{"passenger_count": 7}, http.StatusBadRequest),
		sessionCase("Trip: bad pickup time -> 400", http.MethodPut, "/pickup-time", map[string]any{"pickup_datetime": "soon"}, http.StatusBadRequest),
		sessionCase("Predict: incomplete trip -> 409", http.MethodPost, "/predict", nil, http.StatusConflict),

		{Name: "Live: tip for a 3 mile ride", Run: checkLiveTip},
		{Name: "Predict: fare and recommendation", Run: checkPredictFlow},
		{Name: "Stream: first event is state", Run: checkStream},
		{Name: "Concurrency: one fare request in flight", Run: checkSingleFlight},

		{Name: "Perf: session create throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, func(ctx context.Context) (int, error) {
				code, _, err := r.call(ctx, http.MethodPost, "/api/sessions", nil, nil)
				return code, err
			})
		}},
		{Name: "Perf: location select throughput", Run: func(ctx context.Context, r *Runner) Result {
			id, err := r.newSession(ctx)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return perfLoad(ctx, r, func(ctx context.Context) (int, error) {
				code, _, err := r.call(ctx, http.MethodPost, "/api/sessions/"+id+"/locations", midtown, nil)
				return code, err
			})
		}},
	}
}

// call sends a JSON request and decodes a 2xx body into out when it is non-nil.
func (r *Runner) call(ctx context.Context, method, path string, body, out any) (int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	latency := time.Since(start)
	if out != nil && resp.StatusCode/100 == 2 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, latency, err
		}
		return resp.StatusCode, latency, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, latency, nil
}

func (r *Runner) newSession(ctx context.Context) (string, error) {
	var snap session.Snapshot
	code, _, err := r.call(ctx, http.MethodPost, "/api/sessions", nil, &snap)
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated {
		return "", fmt.Errorf("create session: status=%d", code)
	}
	return string(snap.ID), nil
}

// readySession creates a session with a full trip ready to submit.
func (r *Runner) readySession(ctx context.Context) (string, error) {
	id, err := r.newSession(ctx)
	if err != nil {
		return "", err
	}
	base := "/api/sessions/" + id
	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, base + "/locations", midtown},
		{http.MethodPost, base + "/locations", eastVillage},
		{http.MethodPut, base + "/passengers", map[string]any{"passenger_count": 2}},
		{http.MethodPost, base + "/pickup-time/now", nil},
	}
	for _, s := range steps {
		code, _, err := r.call(ctx, s.method, s.path, s.body, nil)
		if err != nil {
			return "", err
		}
		if code != http.StatusOK {
			return "", fmt.Errorf("%s %s: status=%d", s.method, s.path, code)
		}
	}
	return id, nil
}

func statusCase(name, method, path string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			code, latency, err := r.call(ctx, method, path, body, nil)
			return expectStatus(code, latency, err, want)
		},
	}
}

// sessionCase runs a request against a fresh session's sub-resource.
func sessionCase(name, method, suffix string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			id, err := r.newSession(ctx)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			code, latency, err := r.call(ctx, method, "/api/sessions/"+id+suffix, body, nil)
			return expectStatus(code, latency, err, want)
		},
	}
}

func expectStatus(code int, latency time.Duration, err error, want int) Result {
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	note := fmt.Sprintf("status=%d", code)
	if code != want {
		return Result{Status: statusFail, Latency: latency, Note: note}
	}
	return Result{Status: statusPass, Latency: latency, Note: note}
}

func checkPostgres(ctx context.Context, r *Runner) Result {
	if r.cfg.DSN == "" {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "invalid dsn"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func checkRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	n, err := r.redis.Keys(ctx, "geocode:*").Result()
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("cached_geocodes=%d", len(n))}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: strings.Join(tables, ",")}
}

func checkLiveTip(ctx context.Context, r *Runner) Result {
	id, err := r.newSession(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	base := "/api/sessions/" + id
	if _, _, err := r.call(ctx, http.MethodPost, base+"/locations", midtown, nil); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	var body struct {
		Session session.Snapshot `json:"session"`
	}
	code, latency, err := r.call(ctx, http.MethodPost, base+"/locations", eastVillage, &body)
	if res := expectStatus(code, latency, err, http.StatusOK); res.Status != statusPass {
		return res
	}
	if !strings.HasPrefix(body.Session.LiveRecommendation, "Longer trip") {
		return Result{Status: statusFail, Latency: latency, Note: "tip=" + body.Session.LiveRecommendation}
	}
	return Result{Status: statusPass, Latency: latency}
}

// checkPredictFlow submits a trip and polls until the fare reveal finishes.
func checkPredictFlow(ctx context.Context, r *Runner) Result {
	id, err := r.readySession(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	base := "/api/sessions/" + id
	start := time.Now()
	code, _, err := r.call(ctx, http.MethodPost, base+"/predict", nil, nil)
	if res := expectStatus(code, 0, err, http.StatusAccepted); res.Status != statusPass {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		var snap session.Snapshot
		if _, _, err := r.call(ctx, http.MethodGet, base, nil, &snap); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if snap.Error != "" {
			return Result{Status: statusFail, Latency: time.Since(start), Note: snap.Error}
		}
		if snap.Prediction != nil && snap.Fare.Phase == "done" {
			return r.checkQuoteRecorded(ctx, id, snap.Prediction, time.Since(start))
		}
		select {
		case <-ctx.Done():
			return Result{Status: statusFail, Note: "no fare before timeout"}
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (r *Runner) checkQuoteRecorded(ctx context.Context, id string, res *prediction.Result, latency time.Duration) Result {
	var body struct {
		Quotes []prediction.Quote `json:"quotes"`
	}
	code, _, err := r.call(ctx, http.MethodGet, "/api/sessions/"+id+"/quotes", nil, &body)
	if err != nil || code != http.StatusOK {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("quotes status=%d err=%v", code, err)}
	}
	if len(body.Quotes) == 0 {
		return Result{Status: statusFail, Latency: latency, Note: "quote not recorded"}
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("fare=$%.2f", res.PredictedFare)}
}

func checkStream(ctx context.Context, r *Runner) Result {
	id, err := r.newSession(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/api/sessions/"+id+"/stream", nil)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event:"); ok {
			if name != string(session.FrameState) {
				return Result{Status: statusFail, Note: "first event=" + name}
			}
			return Result{Status: statusPass, Latency: time.Since(start)}
		}
	}
	return Result{Status: statusFail, Note: "stream ended without events"}
}

func checkSingleFlight(ctx context.Context, r *Runner) Result {
	id, err := r.readySession(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	var accepted, conflicted atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			code, _, err := r.call(gctx, http.MethodPost, "/api/sessions/"+id+"/predict", nil, nil)
			if err != nil {
				return err
			}
			switch code {
			case http.StatusAccepted:
				accepted.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	note := fmt.Sprintf("accepted=%d conflict=%d", accepted.Load(), conflicted.Load())
	// a fast predictor may finish between requests, letting a later one in
	if accepted.Load() < 1 || accepted.Load()+conflicted.Load() != int32(r.cfg.Concurrency) {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, hit func(context.Context) (int, error)) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			for time.Now().Before(end) && gctx.Err() == nil {
				code, err := hit(gctx)
				if err != nil || code/100 != 2 {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
