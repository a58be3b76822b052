package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it owns a private registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When creating two managers on fresh registries", func() {
			Convey("Then registration does not collide", func() {
				So(func() {
					NewManager()
					NewManager()
				}, ShouldNotPanic)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("micromet"),
				WithSubsystem("landsat"),
				WithHistogramBuckets([]float64{0.1, 1, 10}),
				WithRegistry(registry),
			)
			manager.RecordJoined(1)

			Convey("Then metric names carry the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "micromet_landsat_scenes_joined_total")
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		m := NewManager()

		Convey("When recording a pipeline run", func() {
			m.RecordScenesQueried("landsat-c01-t1-sr", 3)
			m.RecordScenesQueried("landsat-c01-t1-toa", 3)
			m.RecordScreening(3, 2, 1)
			m.RecordJoined(2)
			m.RecordRowsExported("table", 18)
			m.StartStage(StageJoin)()
			m.RecordRun(true)

			Convey("Then the exposition holds the recorded values", func() {
				body := scrape(m)
				So(body, ShouldContainSubstring, `lst_scenes_queried_total{catalog="landsat-c01-t1-sr"} 3`)
				So(body, ShouldContainSubstring, "lst_scenes_screened_total 3")
				So(body, ShouldContainSubstring, "lst_scenes_clear_total 2")
				So(body, ShouldContainSubstring, "lst_scenes_undefined_score_total 1")
				So(body, ShouldContainSubstring, "lst_scenes_joined_total 2")
				So(body, ShouldContainSubstring, `lst_rows_exported_total{kind="table"} 18`)
				So(body, ShouldContainSubstring, "lst_last_run_success 1")
				So(body, ShouldContainSubstring, `lst_stage_duration_seconds_count{stage="join"} 1`)
			})
		})

		Convey("When recording HTTP requests", func() {
			m.RecordHTTPRequest("/search", "POST", 200, 15*time.Millisecond)

			Convey("Then the handler exposes them", func() {
				So(scrape(m), ShouldContainSubstring, `lst_http_requests_total{method="POST",route="/search",status_code="200"} 1`)
			})
		})

		Convey("When writing a textfile", func() {
			m.RecordJoined(4)
			path := filepath.Join(t.TempDir(), "lst.prom")
			So(m.WriteTextfile(path), ShouldBeNil)

			Convey("Then the file holds the exposition", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(strings.Contains(string(data), "lst_scenes_joined_total 4"), ShouldBeTrue)
			})
		})
	})
}

func TestNilManager(t *testing.T) {
	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Recording is a no-op", func() {
			So(func() {
				m.RecordScenesQueried("sr", 1)
				m.RecordScreening(1, 1, 0)
				m.RecordJoined(1)
				m.RecordRowsExported("table", 1)
				m.StartStage(StageExport)()
				m.RecordRun(false)
				m.RecordHTTPRequest("/", "GET", 200, time.Millisecond)
			}, ShouldNotPanic)
		})
	})
}

func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}
