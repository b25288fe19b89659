package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	datagen = "datagen"

	jobsCreatedTotal       = "jobs_created_total"
	jobStatusCount         = "job_status_count"
	webhookDeliveriesTotal = "webhook_deliveries_total"
	waitlistSignupsTotal   = "waitlist_signups_total"

	dataTypeLabel = "data_type"
	statusLabel   = "status"
	outcomeLabel  = "outcome"
)

var jobsCreatedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: datagen,
		Name:      jobsCreatedTotal,
		Help:      "number of data-generation jobs created, by data type",
	},
	[]string{dataTypeLabel},
)

var jobStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: datagen,
		Name:      jobStatusCount,
		Help:      "number of jobs currently in each lifecycle status",
	},
	[]string{statusLabel},
)

var webhookDeliveriesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: datagen,
		Name:      webhookDeliveriesTotal,
		Help:      "number of webhook delivery attempts, by outcome",
	},
	[]string{outcomeLabel},
)

var waitlistSignupsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: datagen,
		Name:      waitlistSignupsTotal,
		Help:      "number of waitlist signups accepted",
	},
)

func IncreaseJobsCreatedMetric(dataType string) {
	jobsCreatedTotalMetric.With(prometheus.Labels{dataTypeLabel: dataType}).Inc()
}

func UpdateJobStatusCountMetric(status string, count int64) {
	jobStatusCountMetric.With(prometheus.Labels{statusLabel: status}).Set(float64(count))
}

func IncreaseWebhookDeliveriesMetric(outcome string) {
	webhookDeliveriesTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseWaitlistSignupsMetric() {
	waitlistSignupsTotalMetric.Inc()
}

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	prometheus.MustRegister(
		jobsCreatedTotalMetric,
		jobStatusCountMetric,
		webhookDeliveriesTotalMetric,
		waitlistSignupsTotalMetric,
	)
}
