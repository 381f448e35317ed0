// Package metrics declares the opencensus measures of the pipeline and the
// prediction service and exposes them in the prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const namespace = "tiebreak"

var (
	RunsCount       = stats.Int64("runs", "Pipeline runs completed", stats.UnitDimensionless)
	TiesCount       = stats.Int64("ties", "Test observations with a shared top support", stats.UnitDimensionless)
	Accuracy        = stats.Float64("accuracy", "Test accuracy of the last run", stats.UnitDimensionless)
	PredictLatency  = stats.Float64("predict_latency", "Latency of one /predict item", stats.UnitMilliseconds)
	PredictCacheHit = stats.Int64("predict_cache_hits", "Predictions served from the cache", stats.UnitDimensionless)
)

// ModelKey tags a measurement with the classifier that produced it.
var ModelKey = tag.MustNewKey("model")

var Views = []*view.View{
	{Name: "runs_total", Measure: RunsCount, Aggregation: view.Count()},
	{Name: "ties_total", Measure: TiesCount, TagKeys: []tag.Key{ModelKey}, Aggregation: view.Sum()},
	{Name: "accuracy", Measure: Accuracy, TagKeys: []tag.Key{ModelKey}, Aggregation: view.LastValue()},
	{Name: "predict_latency_ms", Measure: PredictLatency, TagKeys: []tag.Key{ModelKey},
		Aggregation: view.Distribution(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100)},
	{Name: "predict_cache_hits_total", Measure: PredictCacheHit, Aggregation: view.Count()},
}

var (
	registerOnce sync.Once
	registerErr  error

	exporterOnce sync.Once
	exporter     *prometheus.Exporter
	exporterErr  error
)

// Register registers the views once. Measurements recorded before it are
// dropped.
func Register() error {
	registerOnce.Do(func() {
		if err := view.Register(Views...); err != nil {
			registerErr = fmt.Errorf("unable to register views: %w", err)
		}
	})
	return registerErr
}

// Handler registers the views and the prometheus exporter once and returns
// the exporter as the /metrics handler.
func Handler() (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, err
	}
	exporterOnce.Do(func() {
		pe, err := prometheus.NewExporter(prometheus.Options{Namespace: namespace})
		if err != nil {
			exporterErr = fmt.Errorf("unable to create prometheus exporter: %w", err)
			return
		}
		view.RegisterExporter(pe)
		exporter = pe
	})
	if exporterErr != nil {
		return nil, exporterErr
	}
	return exporter, nil
}

// Totals flattens the current data of every view into one value per row,
// keyed as name{tag=value}. Distributions report their mean.
func Totals() (map[string]float64, error) {
	if err := Register(); err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, v := range Views {
		rows, err := view.RetrieveData(v.Name)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve %s: %w", v.Name, err)
		}
		for _, r := range rows {
			key := v.Name
			if len(r.Tags) > 0 {
				tags := make([]string, len(r.Tags))
				for i, tg := range r.Tags {
					tags[i] = tg.Key.Name() + "=" + tg.Value
				}
				key += "{" + strings.Join(tags, ",") + "}"
			}
			switch data := r.Data.(type) {
			case *view.CountData:
				totals[key] = float64(data.Value)
			case *view.SumData:
				totals[key] = data.Value
			case *view.LastValueData:
				totals[key] = data.Value
			case *view.DistributionData:
				totals[key] = data.Mean
			}
		}
	}
	return totals, nil
}

// Record records ms tagged with the model name.
func Record(ctx context.Context, model string, ms ...stats.Measurement) {
	ctx, err := tag.New(ctx, tag.Upsert(ModelKey, model))
	if err != nil {
		return
	}
	stats.Record(ctx, ms...)
}
