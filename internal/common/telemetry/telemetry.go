// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/flowforge/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	convertTotal     *expvar.Int
	convertFailures  *expvar.Int
	convertLatencyMS *expvar.Int

	detectSectionsTotal *expvar.Int
	detectModeTotal     *expvar.Map

	buildNodesTotal *expvar.Int
	buildEdgesTotal *expvar.Int

	validateTotal    *expvar.Int
	validateFailures *expvar.Int

	renderTotal     *expvar.Map
	renderFallbacks *expvar.Int

	extractTotal *expvar.Map
)

func ensureInit() {
	initOnce.Do(func() {
		convertTotal = expvar.NewInt("flowforge_convert_total")
		convertFailures = expvar.NewInt("flowforge_convert_failures")
		convertLatencyMS = expvar.NewInt("flowforge_convert_latency_ms")

		detectSectionsTotal = expvar.NewInt("flowforge_detect_sections_total")
		detectModeTotal = expvar.NewMap("flowforge_detect_mode_total")

		buildNodesTotal = expvar.NewInt("flowforge_build_nodes_total")
		buildEdgesTotal = expvar.NewInt("flowforge_build_edges_total")

		validateTotal = expvar.NewInt("flowforge_validate_total")
		validateFailures = expvar.NewInt("flowforge_validate_failures")

		renderTotal = expvar.NewMap("flowforge_render_total")
		renderFallbacks = expvar.NewInt("flowforge_render_fallbacks")

		extractTotal = expvar.NewMap("flowforge_extract_total")
	})
}

// StartSpan records the beginning of a named pipeline stage and returns
// a completion callback that logs the elapsed duration.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		if sp == nil {
			return
		}
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordConvert counts one end-to-end conversion.
func RecordConvert(duration time.Duration, failed bool) {
	ensureInit()
	convertTotal.Add(1)
	if failed {
		convertFailures.Add(1)
	}
	if duration > 0 {
		convertLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordDetection counts detected workflow sections per split mode.
func RecordDetection(mode string, sections int) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(mode))
	if key == "" {
		key = "auto"
	}
	detectModeTotal.Add(key, 1)
	if sections > 0 {
		detectSectionsTotal.Add(int64(sections))
	}
}

// RecordBuild counts nodes and connections produced by the graph builder.
func RecordBuild(nodes, edges int) {
	ensureInit()
	if nodes > 0 {
		buildNodesTotal.Add(int64(nodes))
	}
	if edges > 0 {
		buildEdgesTotal.Add(int64(edges))
	}
}

// RecordValidation counts one validation pass.
func RecordValidation(valid bool) {
	ensureInit()
	validateTotal.Add(1)
	if !valid {
		validateFailures.Add(1)
	}
}

// RecordRender counts one render per backend, tracking fallback use.
func RecordRender(backend string, fallback bool) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(backend))
	if key == "" {
		key = "unknown"
	}
	renderTotal.Add(key, 1)
	if fallback {
		renderFallbacks.Add(1)
	}
}

// RecordExtraction counts one step-extraction run per method.
func RecordExtraction(method string) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(method))
	if key == "" {
		key = "heuristic"
	}
	extractTotal.Add(key, 1)
}

// SpanDuration reports elapsed time for the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}
