package config

import (
	"strconv"
	"time"
)

// Duration is a time.Duration that reads and writes TOML as "1.5s" style
// strings. Bare numbers are seconds.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText writes d in time.Duration notation
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses "500ms", "1m30s" or a plain number of seconds
func (d *Duration) UnmarshalText(data []byte) error {
	s := string(data)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
