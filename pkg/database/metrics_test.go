package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil, "beers")

	ch := make(chan *prometheus.Desc, len(poolMetrics)+1)
	c.Describe(ch)
	close(ch)

	var n int
	for d := range ch {
		n++
		assert.True(t, strings.Contains(d.String(), `fqName: "hoppyhub_db_pool_`), d.String())
	}
	assert.Equal(t, len(poolMetrics), n)
}

func TestPoolStatsCollector_NoPoolCollectsNothing(t *testing.T) {
	assert.Equal(t, 0, testutil.CollectAndCount(NewPoolStatsCollector(nil, "beers")))
}

func observed(t *testing.T, operation, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, queryDuration.WithLabelValues(operation, outcome).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestTraceQuery_ObservesDuration(t *testing.T) {
	_, end := TraceQuery(context.Background(), "CountBeers", "SELECT count(*) FROM beers")
	end(errors.New("connection reset by peer"))
	_, end = TraceQuery(context.Background(), "CountBeers", "SELECT count(*) FROM beers")
	end(nil)
	_, end = TraceQuery(context.Background(), "CountBeers", "SELECT count(*) FROM beers")
	end(nil)

	assert.Equal(t, uint64(1), observed(t, "CountBeers", "error"))
	assert.Equal(t, uint64(2), observed(t, "CountBeers", "ok"))
}
