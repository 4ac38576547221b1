package metrics

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// NATSObserver publishes every signal as a JSON message on a
// venue-scoped subject, following the teacher's "system.metrics"
// subject convention. Publishing is fire-and-forget: a publish error is
// logged, never returned or retried, since a dropped metrics message
// must never affect request flow.
type NATSObserver struct {
	conn   *nats.Conn
	prefix string
	log    *logrus.Entry
}

// NewNATSObserver wraps an already-connected *nats.Conn. subjectPrefix
// defaults to "perpunify.metrics" when empty.
func NewNATSObserver(conn *nats.Conn, subjectPrefix string, log *logrus.Entry) *NATSObserver {
	if subjectPrefix == "" {
		subjectPrefix = "perpunify.metrics"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &NATSObserver{conn: conn, prefix: subjectPrefix, log: log.WithField("component", "metrics-nats")}
}

func (o *NATSObserver) publish(subject string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		o.log.WithError(err).Warn("failed to marshal metrics payload")
		return
	}
	if err := o.conn.Publish(o.prefix+"."+subject, msg); err != nil {
		o.log.WithError(err).Warn("failed to publish metrics message")
	}
}

type requestEvent struct {
	VenueID  string `json:"venue_id"`
	Endpoint string `json:"endpoint"`
}

type resultEvent struct {
	VenueID   string `json:"venue_id"`
	Endpoint  string `json:"endpoint"`
	LatencyMs int64  `json:"latency_ms"`
	Kind      string `json:"kind,omitempty"`
}

type breakerEvent struct {
	VenueID string `json:"venue_id"`
	State   int    `json:"state,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

type wsEvent struct {
	VenueID string `json:"venue_id"`
	Channel string `json:"channel,omitempty"`
}

func (o *NATSObserver) RecordRequest(venueID, endpoint string) {
	o.publish("request.attempted", requestEvent{VenueID: venueID, Endpoint: endpoint})
}

func (o *NATSObserver) RecordSuccess(venueID, endpoint string, latency time.Duration) {
	o.publish("request.success", resultEvent{VenueID: venueID, Endpoint: endpoint, LatencyMs: latency.Milliseconds()})
}

func (o *NATSObserver) RecordFailure(venueID, endpoint string, latency time.Duration, kind xerrors.Kind) {
	o.publish("request.failure", resultEvent{VenueID: venueID, Endpoint: endpoint, LatencyMs: latency.Milliseconds(), Kind: string(kind)})
}

func (o *NATSObserver) RecordRateLimitHit(venueID, endpoint string) {
	o.publish("rate_limit.hit", requestEvent{VenueID: venueID, Endpoint: endpoint})
}

func (o *NATSObserver) RecordBreakerState(venueID string, state BreakerState) {
	o.publish("breaker.state", breakerEvent{VenueID: venueID, State: int(state)})
}

func (o *NATSObserver) RecordBreakerTransition(venueID, from, to string) {
	o.publish("breaker.transition", breakerEvent{VenueID: venueID, From: from, To: to})
}

func (o *NATSObserver) RecordBreakerSuccess(venueID string) {
	o.publish("breaker.success", breakerEvent{VenueID: venueID})
}

func (o *NATSObserver) RecordBreakerFailure(venueID string) {
	o.publish("breaker.failure", breakerEvent{VenueID: venueID})
}

func (o *NATSObserver) RecordWSReconnect(venueID string) {
	o.publish("ws.reconnect", wsEvent{VenueID: venueID})
}

func (o *NATSObserver) RecordWSDroppedEvent(venueID, channel string) {
	o.publish("ws.dropped", wsEvent{VenueID: venueID, Channel: channel})
}

var _ Observer = (*NATSObserver)(nil)
