package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_document_saves_total",
		Help: "Document writes by status",
	}, []string{"status"})

	documentSaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zai_document_save_duration_seconds",
		Help:    "Time spent writing the document and its snapshot",
		Buckets: prometheus.DefBuckets,
	})

	backupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_backups_total",
		Help: "Backup snapshots by status",
	}, []string{"status"})

	backupsRotatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zai_backups_rotated_total",
		Help: "Snapshots removed by rotation, by status",
	}, []string{"status"})
)

func observeSave(start time.Time, err error) {
	documentSaveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		documentSavesTotal.WithLabelValues("error").Inc()
		return
	}
	documentSavesTotal.WithLabelValues("ok").Inc()
}
