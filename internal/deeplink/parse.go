package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Actions understood by the router.
const (
	ActionExtendTime     = "extend-time"
	ActionEndReservation = "end-reservation"
)

var (
	// ErrUnknownAction is returned for links naming an action the app does not offer.
	ErrUnknownAction = errors.New("unknown deep link action")
	// ErrMalformedMinutes is returned when an extend link lacks a numeric minutes parameter.
	ErrMalformedMinutes = errors.New("missing or non-numeric minutes")
)

// Action is a parsed deep link.
type Action struct {
	Scheme        string
	Name          string
	ReservationID string
	Minutes       int
	// Confirmed is set by confirm=true, which the confirmation prompt adds.
	Confirmed bool
}

// Parse decodes a deep link such as
// "reservpark://extend-time?id=res-1&minutes=30". The action is the last path
// segment, or the host when the path is empty.
func Parse(raw string) (Action, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Action{}, fmt.Errorf("invalid deep link %q: %w", raw, err)
	}

	name := u.Host
	if path := strings.Trim(u.Path, "/"); path != "" {
		segments := strings.Split(path, "/")
		name = segments[len(segments)-1]
	}

	q := u.Query()
	action := Action{
		Scheme:        u.Scheme,
		Name:          name,
		ReservationID: q.Get("id"),
	}

	switch name {
	case ActionEndReservation:
		action.Confirmed, _ = strconv.ParseBool(q.Get("confirm"))
		return action, nil
	case ActionExtendTime:
		minutes, err := strconv.Atoi(q.Get("minutes"))
		if err != nil {
			return action, fmt.Errorf("%w in %q", ErrMalformedMinutes, raw)
		}
		action.Minutes = minutes
		return action, nil
	default:
		return action, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
}
