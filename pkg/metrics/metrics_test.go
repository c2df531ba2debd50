package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestInitMetrics 测试指标初始化(可重复调用)
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	if HTTPRequestsTotal == nil || CheckoutsTotal == nil || RecommendCacheTotal == nil {
		t.Fatal("指标未初始化")
	}
}

// TestRecordCheckout 测试结算指标
func TestRecordCheckout(t *testing.T) {
	InitMetrics()

	okBefore := getCounterValue(t, CheckoutsTotal.WithLabelValues("ok"))
	movedBefore := getCounterValue(t, CheckoutItemsMovedTotal)
	countBefore := getHistogramCount(t, CheckoutDuration)

	RecordCheckout("ok", 3, 20*time.Millisecond)
	RecordCheckout("insufficient_stock", 0, 5*time.Millisecond)

	if v := getCounterValue(t, CheckoutsTotal.WithLabelValues("ok")) - okBefore; v != 1 {
		t.Errorf("checkouts_total{status=ok}增量错误: expected=1, got=%f", v)
	}
	if v := getCounterValue(t, CheckoutItemsMovedTotal) - movedBefore; v != 3 {
		t.Errorf("checkout_items_moved_total增量错误: expected=3, got=%f", v)
	}
	if c := getHistogramCount(t, CheckoutDuration) - countBefore; c != 2 {
		t.Errorf("checkout_duration_seconds样本数错误: expected=2, got=%d", c)
	}
}

// TestRecordRecommend 测试推荐指标
func TestRecordRecommend(t *testing.T) {
	InitMetrics()

	before := getCounterValue(t, RecommendationsTotal.WithLabelValues("cold_start"))
	hitBefore := getCounterValue(t, RecommendCacheTotal.WithLabelValues("hit"))

	RecordRecommendation("cold_start")
	RecordRecommendCache("hit")
	RecordRecommendCache("hit")

	if v := getCounterValue(t, RecommendationsTotal.WithLabelValues("cold_start")) - before; v != 1 {
		t.Errorf("recommendations_total增量错误: expected=1, got=%f", v)
	}
	if v := getCounterValue(t, RecommendCacheTotal.WithLabelValues("hit")) - hitBefore; v != 2 {
		t.Errorf("recommend_cache_total{result=hit}增量错误: expected=2, got=%f", v)
	}
}

// TestRecordPublishAndSaga 测试消息和Saga指标的结果标签
func TestRecordPublishAndSaga(t *testing.T) {
	InitMetrics()

	failBefore := getCounterValue(t, MessagesPublishedTotal.WithLabelValues("ex", "checkout.completed", "failure"))
	RecordPublish("ex", "checkout.completed", errors.New("broken pipe"))
	if v := getCounterValue(t, MessagesPublishedTotal.WithLabelValues("ex", "checkout.completed", "failure")) - failBefore; v != 1 {
		t.Errorf("messages_published_total{result=failure}增量错误: expected=1, got=%f", v)
	}

	okBefore := getCounterValue(t, SagaExecutionsTotal.WithLabelValues("delete_account", "success"))
	RecordSaga("delete_account", nil, time.Millisecond)
	if v := getCounterValue(t, SagaExecutionsTotal.WithLabelValues("delete_account", "success")) - okBefore; v != 1 {
		t.Errorf("saga_executions_total增量错误: expected=1, got=%f", v)
	}
}

// TestGaugeAndVecHelpers 测试通用便捷函数
func TestGaugeAndVecHelpers(t *testing.T) {
	InitMetrics()

	start := getGaugeValue(t, HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)
	if v := getGaugeValue(t, HTTPRequestsInProgress) - start; v != 1 {
		t.Errorf("Gauge值错误: expected=1, got=%f", v)
	}
	DecGauge(HTTPRequestsInProgress)

	SetGaugeVec(CircuitBreakerState, map[string]string{"name": "mq"}, 2)
	if v := getGaugeValue(t, CircuitBreakerState.With(prometheus.Labels{"name": "mq"})); v != 2 {
		t.Errorf("GaugeVec值错误: expected=2, got=%f", v)
	}

	labels := map[string]string{"method": "GET", "path": "/api/v1/books", "status": "200"}
	before := getCounterValue(t, HTTPRequestsTotal.With(labels))
	IncCounterVec(HTTPRequestsTotal, labels)
	if v := getCounterValue(t, HTTPRequestsTotal.With(labels)) - before; v != 1 {
		t.Errorf("CounterVec值错误: expected=1, got=%f", v)
	}

	ObserveHistogramVec(HTTPRequestDuration, map[string]string{"method": "GET", "path": "/ping"}, 0.002)
}

// =========================================
// 辅助函数:读取指标值
// =========================================

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := counter.Write(&m); err != nil {
		t.Fatalf("读取Counter失败: %v", err)
	}
	return m.GetCounter().GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := gauge.Write(&m); err != nil {
		t.Fatalf("读取Gauge失败: %v", err)
	}
	return m.GetGauge().GetValue()
}

func getHistogramCount(t *testing.T, histogram prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := histogram.Write(&m); err != nil {
		t.Fatalf("读取Histogram失败: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
