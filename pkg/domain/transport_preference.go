package domain

import dErrors "convene/pkg/domain-errors"

// TransportPreference says how a guest intends to reach the event venue.
// Guests on bus transport must carry a pickup station; private guests must not
// rely on one.
type TransportPreference string

const (
	TransportBus     TransportPreference = "bus"
	TransportPrivate TransportPreference = "private"
)

var validTransports = map[TransportPreference]bool{
	TransportBus:     true,
	TransportPrivate: true,
}

// ParseTransportPreference constructs a TransportPreference from external input.
func ParseTransportPreference(s string) (TransportPreference, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transport preference cannot be empty")
	}
	t := TransportPreference(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid transport preference")
	}
	return t, nil
}

func (t TransportPreference) IsValid() bool {
	return validTransports[t]
}

func (t TransportPreference) String() string {
	return string(t)
}
