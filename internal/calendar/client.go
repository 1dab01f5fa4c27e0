// Package calendar wraps the Google Calendar API for clinic appointment
// events.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// ErrNotConfigured indicates the client has no credentials and cannot reach
// the calendar API.
var ErrNotConfigured = errors.New("calendar: client not configured")

// Config carries calendar credentials and test seams.
type Config struct {
	CalendarID      string
	CredentialsJSON string
	// HTTPClient and Endpoint override the transport, used in tests.
	HTTPClient *http.Client
	Endpoint   string
	Logger     *logging.Logger
}

// Client talks to a single Google calendar. Construction validates nothing
// against the network; a client without credentials is simply not Ready.
type Client struct {
	svc        *gcal.Service
	calendarID string
	logger     *logging.Logger
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	c := &Client{calendarID: cfg.CalendarID, logger: cfg.Logger}

	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		}
	case cfg.CredentialsJSON != "":
		opts = append(opts,
			option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
			option.WithScopes(gcal.CalendarScope),
		)
	default:
		// No credentials: construction succeeds, sends will fail fast.
		return c, nil
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: build service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// Ready reports whether the client can reach the calendar API.
func (c *Client) Ready() bool {
	return c != nil && c.svc != nil
}

// Event is a flattened calendar event. Start and End are RFC3339 timestamps,
// or date-only strings for all-day events.
type Event struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
}

// EventInput carries the fields for a new event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// CreateEvent inserts an event and returns it with the provider id.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	if !c.Ready() {
		return nil, ErrNotConfigured
	}
	ev := &gcal.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       &gcal.EventDateTime{DateTime: in.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: in.End.Format(time.RFC3339)},
	}
	for _, email := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: email})
	}
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: create event: %w", err)
	}
	return flattenEvent(created), nil
}

// ListEvents returns single events starting in [min, max), ordered by start.
func (c *Client) ListEvents(ctx context.Context, min, max time.Time, maxResults int64) ([]Event, error) {
	if !c.Ready() {
		return nil, ErrNotConfigured
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	result, err := c.svc.Events.List(c.calendarID).
		TimeMin(min.Format(time.RFC3339)).
		TimeMax(max.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, *flattenEvent(item))
	}
	return events, nil
}

// DeleteEvent removes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if !c.Ready() {
		return ErrNotConfigured
	}
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: delete event %s: %w", eventID, err)
	}
	return nil
}

// SlotFree reports whether no event starts in [start, end). It is advisory
// only; nothing prevents a concurrent insert.
func (c *Client) SlotFree(ctx context.Context, start, end time.Time) (bool, error) {
	events, err := c.ListEvents(ctx, start, end, 1)
	if err != nil {
		return false, err
	}
	return len(events) == 0, nil
}

func flattenEvent(ev *gcal.Event) *Event {
	out := &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if ev.Start != nil {
		out.Start = ev.Start.DateTime
		if out.Start == "" {
			out.Start = ev.Start.Date
		}
	}
	if ev.End != nil {
		out.End = ev.End.DateTime
		if out.End == "" {
			out.End = ev.End.Date
		}
	}
	for _, a := range ev.Attendees {
		if a != nil && a.Email != "" {
			out.Attendees = append(out.Attendees, a.Email)
		}
	}
	return out
}
