package stream

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Event is one server-sent event decoded from the wire.
type Event struct {
	Name string
	Data []byte
}

// parseField splits an SSE line into its field name and value. A single
// leading space in the value is stripped, per the event-stream format.
func parseField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}

// readEvents consumes an event-stream body until EOF or read error.
// Data lines belonging to one event are joined with a newline and delivered
// through onEvent on the caller's goroutine, preserving arrival order.
// A "retry" field updates the reconnect delay through onRetry.
//
// Returns nil on clean EOF (server closed the stream) and the read error
// otherwise.
func readEvents(r io.Reader, onEvent func(Event), onRetry func(time.Duration)) error {
	br := bufio.NewReader(r)

	var dataLines []string
	var name string

	dispatch := func() {
		if len(dataLines) > 0 && onEvent != nil {
			onEvent(Event{
				Name: name,
				Data: []byte(strings.Join(dataLines, "\n")),
			})
		}
		dataLines = nil
		name = ""
	}

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")

			switch {
			case line == "":
				dispatch()

			case strings.HasPrefix(line, ":"):
				// Comment / keep-alive line.

			default:
				field, value := parseField(line)
				switch field {
				case "data":
					dataLines = append(dataLines, value)
				case "event":
					name = value
				case "retry":
					if ms, perr := strconv.Atoi(value); perr == nil && ms > 0 && onRetry != nil {
						onRetry(time.Duration(ms) * time.Millisecond)
					}
				}
				// Unknown fields (including "id") are ignored.
			}
		}

		if err != nil {
			if err == io.EOF {
				dispatch()
				return nil
			}
			return err
		}
	}
}
