package webhooksvc

import (
	"context"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/mentorship"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Form renders a booking event as the url-encoded fields the scheduling
// automation expects.
func Form(evt mentorship.BookingEvent) map[string]string {
	s := evt.Session
	return map[string]string{
		"beneficiario_id": s.BeneficiaryID,
		"mentor_id":       s.MentorID,
		"perfil_id":       s.ProfileID,
		"reserva_id":      s.ID,
		"fecha_inicio":    s.StartsAt.Format(dateLayout),
		"fecha_fin":       s.EndsAt.Format(dateLayout),
		"hora_inicio":     s.StartsAt.Format(timeLayout),
		"hora_fin":        s.EndsAt.Format(timeLayout),
		"titulo":          s.Title,
		"accion":          string(evt.Action),
	}
}

type httpNotifier struct {
	client *resty.Client
	url    string
	logger core.Logger
}

var _ mentorship.Notifier = (*httpNotifier)(nil)

// NewNotifier posts booking events to conf.Webhook.BookingURL. With no URL
// configured events are only logged.
func NewNotifier(conf *core.Config, logger core.Logger) mentorship.Notifier {
	client := resty.New().
		SetTimeout(conf.Webhook.Timeout).
		SetHeader("User-Agent", conf.AppName+"/"+conf.Build)
	return &httpNotifier{client: client, url: conf.Webhook.BookingURL, logger: logger}
}

func (n *httpNotifier) NotifyBooking(ctx context.Context, evt mentorship.BookingEvent) error {
	form := Form(evt)
	if n.url == "" {
		n.logger.Debug("booking webhook disabled", map[string]interface{}{"reserva_id": evt.Session.ID, "accion": evt.Action})
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(n.url)
	if err != nil {
		return errors.Wrap(err, "webhooksvc.NotifyBooking")
	}
	if resp.IsError() {
		return errors.Errorf("webhooksvc.NotifyBooking: unexpected status %s", resp.Status())
	}
	return nil
}

// Recorder keeps events in memory; used by tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	Events []mentorship.BookingEvent
	Err    error
}

var _ mentorship.Notifier = (*Recorder)(nil)

func (r *Recorder) NotifyBooking(_ context.Context, evt mentorship.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, evt)
	return nil
}

func (r *Recorder) Sent() []mentorship.BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mentorship.BookingEvent(nil), r.Events...)
}
