package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/hatlonely/modelorm/log/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestObservableStore(t *testing.T) {
	Convey("测试 ObservableStore", t, func() {
		ctx := context.Background()
		registry := prometheus.NewRegistry()
		var buf bytes.Buffer
		l, err := logger.NewSLog(&buf, &logger.SLogOptions{Level: "debug", Format: "json"})
		So(err, ShouldBeNil)

		s, err := NewObservableStoreWithOptions[string, *testValue](
			NewMapStore[string, *testValue](),
			&ObservableStoreOptions{Name: "test_store", EnableMetrics: true, EnableLogging: true, EnableTracing: true},
			WithRegisterer(registry),
			WithObservableLogger(l),
		)
		So(err, ShouldBeNil)

		testStoreSuite(s)

		Convey("按操作和结果统计", func() {
			So(s.Set(ctx, "m", &testValue{Name: "m"}), ShouldBeNil)
			_, err := s.Get(ctx, "m")
			So(err, ShouldBeNil)
			_, err = s.Get(ctx, "none")
			So(err, ShouldNotBeNil)

			So(testutil.ToFloat64(s.metrics.operationCounter.WithLabelValues("set", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(s.metrics.operationCounter.WithLabelValues("get", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(s.metrics.operationCounter.WithLabelValues("get", "not_found")), ShouldEqual, 1)
			So(buf.String(), ShouldContainSubstring, `"component":"test_store"`)
		})

		Convey("同名指标重复创建时复用", func() {
			again, err := NewObservableStoreWithOptions[string, *testValue](
				NewMapStore[string, *testValue](),
				&ObservableStoreOptions{Name: "test_store", EnableMetrics: true},
				WithRegisterer(registry),
			)
			So(err, ShouldBeNil)
			So(again.metrics.operationCounter == s.metrics.operationCounter, ShouldBeTrue)
		})

		Convey("参数错误", func() {
			_, err := NewObservableStoreWithOptions[string, *testValue](nil, &ObservableStoreOptions{})
			So(err, ShouldNotBeNil)
			_, err = NewObservableStoreWithOptions[string, *testValue](NewMapStore[string, *testValue](), nil)
			So(err, ShouldNotBeNil)
		})
	})
}
