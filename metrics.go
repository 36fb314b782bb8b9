package dock

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zereker/dock/command"
)

// Metrics counts the traffic of every pipe it is given to. A nil
// *Metrics records nothing.
type Metrics struct {
	commandsReceived *prometheus.CounterVec
	commandsSent     *prometheus.CounterVec
	decodeErrors     prometheus.Counter
	idleDisconnects  prometheus.Counter
	packets          *prometheus.CounterVec
	bytes            *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dock",
				Subsystem: "command",
				Name:      "received_total",
				Help:      "Commands received, by tag.",
			},
			[]string{"tag"},
		),
		commandsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dock",
				Subsystem: "command",
				Name:      "sent_total",
				Help:      "Commands sent, by tag.",
			},
			[]string{"tag"},
		),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dock",
			Subsystem: "command",
			Name:      "decode_errors_total",
			Help:      "Commands that failed to decode.",
		}),
		idleDisconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dock",
			Subsystem: "pipe",
			Name:      "idle_disconnects_total",
			Help:      "Pipes disconnected by the idle timeout.",
		}),
		packets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dock",
				Subsystem: "packet",
				Name:      "total",
				Help:      "Packets, by direction.",
			},
			[]string{"direction"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dock",
				Subsystem: "packet",
				Name:      "bytes_total",
				Help:      "Packet payload bytes, by direction.",
			},
			[]string{"direction"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.commandsReceived, m.commandsSent, m.decodeErrors,
			m.idleDisconnects, m.packets, m.bytes)
	}
	return m
}

func (m *Metrics) commandReceived(tag command.Tag) {
	if m == nil {
		return
	}
	m.commandsReceived.WithLabelValues(string(tag)).Inc()
}

func (m *Metrics) commandSent(tag command.Tag) {
	if m == nil {
		return
	}
	m.commandsSent.WithLabelValues(string(tag)).Inc()
}

func (m *Metrics) decodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) idleDisconnect() {
	if m == nil {
		return
	}
	m.idleDisconnects.Inc()
}

func (m *Metrics) packetReceived(n int) {
	if m == nil {
		return
	}
	m.packets.WithLabelValues("in").Inc()
	m.bytes.WithLabelValues("in").Add(float64(n))
}

func (m *Metrics) packetSent(n int) {
	if m == nil {
		return
	}
	m.packets.WithLabelValues("out").Inc()
	m.bytes.WithLabelValues("out").Add(float64(n))
}
