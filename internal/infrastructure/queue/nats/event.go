package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const documentIDHeader = "Faq-Document-Id"

type ingestEvent struct {
	DocumentID string    `json:"document_id"`
	QueuedAt   time.Time `json:"queued_at"`
}

func encodeEvent(subject string, event ingestEvent) (*nats.Msg, error) {
	if strings.TrimSpace(event.DocumentID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode ingest event", errors.New("document id is required"))
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal ingest event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(documentIDHeader, event.DocumentID)
	msg.Data = data
	return msg, nil
}

// decodeEvent also accepts a bare document id body, as published before
// events carried a JSON envelope.
func decodeEvent(msg *nats.Msg) (ingestEvent, error) {
	body := strings.TrimSpace(string(msg.Data))
	if body == "" {
		return ingestEvent{}, errors.New("empty ingest event")
	}

	var event ingestEvent
	if strings.HasPrefix(body, "{") {
		if err := json.Unmarshal([]byte(body), &event); err != nil {
			return ingestEvent{}, fmt.Errorf("decode ingest event: %w", err)
		}
	} else {
		event.DocumentID = body
	}
	if event.DocumentID == "" && msg.Header != nil {
		event.DocumentID = msg.Header.Get(documentIDHeader)
	}
	if event.DocumentID == "" {
		return ingestEvent{}, errors.New("ingest event without document id")
	}
	return event, nil
}
