package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"serenify/models"
)

// Event framing shared with the completion endpoint.
const (
	eventPrefix = "data: "
	eventDone   = "[DONE]"
)

// DecodeEventStream consumes a text/event-stream body line by line and
// accumulates the text fragments. After every contributing event the full
// accumulated text is sent on snapshots (when non-nil), so the consumer can
// redraw idempotently. Unparseable payloads are treated as incomplete
// frames and skipped; the end-of-stream sentinel contributes nothing.
func DecodeEventStream(ctx context.Context, r io.Reader, snapshots chan<- string) (string, error) {
	reader := bufio.NewReader(r)
	var accumulator strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if fragment, ok := decodeEventLine(line); ok && fragment != "" {
				accumulator.WriteString(fragment)
				if snapshots != nil {
					select {
					case snapshots <- accumulator.String():
					case <-ctx.Done():
						return accumulator.String(), ctx.Err()
					}
				}
			}
		}
		if err == io.EOF {
			return accumulator.String(), nil
		}
		if err != nil {
			return accumulator.String(), fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// decodeEventLine extracts the text fragment from one event line.
func decodeEventLine(line string) (string, bool) {
	data, found := strings.CutPrefix(strings.TrimSpace(line), eventPrefix)
	if !found {
		return "", false
	}
	data = strings.TrimSpace(data)
	if data == eventDone {
		return "", false
	}

	var chunk models.StreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		// Incomplete frame; the rest arrives on a later line.
		return "", false
	}
	return chunk.Text(), true
}
