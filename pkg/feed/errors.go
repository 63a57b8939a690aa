package feed

import "fmt"

// TransportError reports conflicting transport options
type TransportError struct {
	Msg string
}

func (e *TransportError) Error() string {
	return "transport: " + e.Msg
}

// RelayError reports a non-success response from the scraping relay
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay status code: %d %s", e.StatusCode, e.Body)
}

// UnavailableFeedError is returned when upstream marks the feed as unsupported
type UnavailableFeedError struct {
	URL string
}

func (e *UnavailableFeedError) Error() string {
	return fmt.Sprintf("feed is not available: %s", e.URL)
}

// UnsupportedTopicError is returned when a topic feed has no entries
type UnsupportedTopicError struct {
	Topic string
}

func (e *UnsupportedTopicError) Error() string {
	return fmt.Sprintf("unsupported topic %q", e.Topic)
}

// DateParseError is returned for a date string which can't be parsed
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not parse date %q", e.Value)
	}
	return fmt.Sprintf("could not parse date %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }
