package websocket

import "encoding/json"

// command is an inbound client message.
type command struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandleClientMessage applies a client command and queues the reply.
func HandleClientMessage(client *Client, raw []byte) {
	reply := handleCommand(client, raw)
	data, err := reply.JSON()
	if err != nil {
		return
	}
	if !client.Reply(data) {
		client.hub.logger.Debug("dropped websocket reply")
	}
}

func handleCommand(client *Client, raw []byte) Message {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return NewMessage(TypeError, ErrorPayload{Code: "invalid_message", Message: "Message is not valid JSON"})
	}

	switch cmd.Type {
	case TypePing:
		return NewMessage(TypePong, nil)

	case TypeSubscribe, TypeUnsubscribe:
		var p SubscribePayload
		if len(cmd.Payload) > 0 {
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				return NewMessage(TypeError, ErrorPayload{Code: "invalid_payload", Message: "Payload must be an object", OriginalType: string(cmd.Type)})
			}
		}
		if p.TripID == "" {
			return NewMessage(TypeError, ErrorPayload{Code: "invalid_payload", Message: "tripId is required", OriginalType: string(cmd.Type)})
		}
		if cmd.Type == TypeSubscribe {
			client.Subscribe(p.TripID)
			return NewMessage(TypeSubscribeAck, p)
		}
		client.Unsubscribe(p.TripID)
		return NewMessage(TypeUnsubscribeAck, p)

	default:
		return NewMessage(TypeError, ErrorPayload{Code: "unknown_type", Message: "Unknown message type", OriginalType: string(cmd.Type)})
	}
}
