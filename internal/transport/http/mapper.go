package http

import (
	"encoding/json"

	"github.com/gossips-social/gossips-hub/internal/hub"
	"github.com/gossips-social/gossips-hub/internal/proto"
	"github.com/gossips-social/gossips-hub/internal/store"
)

// inboundToCommand maps a wire frame to a hub command. Any defect in the
// frame, unknown type, malformed data or missing fields, comes back as a
// protocol error for the client; it never fails the connection.
func inboundToCommand(inbound proto.Inbound) (*hub.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, malformedPayload(inbound.Type)
		}
		return &hub.Command{
			Kind:   hub.CommandJoin,
			UserID: join.UserID,
		}, nil
	case proto.InboundTypeSendMessage:
		var send proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, malformedPayload(inbound.Type)
		}
		if send.ReceiverID <= 0 {
			return nil, &proto.Error{Code: hub.ErrCodeBadRequest, Msg: "receiverId is required"}
		}
		return &hub.Command{
			Kind:       hub.CommandSendMessage,
			ReceiverID: send.ReceiverID,
			Content:    send.Content,
			Media:      mediaFromWire(send.Media),
			TempID:     send.TempID,
		}, nil
	case proto.InboundTypeMarkAsRead:
		var mark proto.MarkAsReadData
		if err := json.Unmarshal(inbound.Data, &mark); err != nil {
			return nil, malformedPayload(inbound.Type)
		}
		if mark.MessageID == "" {
			return nil, &proto.Error{Code: hub.ErrCodeBadRequest, Msg: "messageId is required"}
		}
		return &hub.Command{
			Kind:       hub.CommandMarkRead,
			MessageID:  mark.MessageID,
			ReceiverID: mark.ReceiverID,
		}, nil
	case proto.InboundTypeDeleteChat:
		var del proto.DeleteChatData
		if err := json.Unmarshal(inbound.Data, &del); err != nil {
			return nil, malformedPayload(inbound.Type)
		}
		if del.ReceiverID <= 0 {
			return nil, &proto.Error{Code: hub.ErrCodeBadRequest, Msg: "receiverId is required"}
		}
		return &hub.Command{
			Kind:       hub.CommandDeleteChat,
			ReceiverID: del.ReceiverID,
		}, nil
	case proto.InboundTypeRestrictUser, proto.InboundTypeBlockUser, proto.InboundTypeReportUser:
		var mod proto.ModerationData
		if err := json.Unmarshal(inbound.Data, &mod); err != nil {
			return nil, malformedPayload(inbound.Type)
		}
		if mod.TargetUserID <= 0 {
			return nil, &proto.Error{Code: hub.ErrCodeBadRequest, Msg: "targetUserId is required"}
		}
		kind := hub.CommandRestrictUser
		switch inbound.Type {
		case proto.InboundTypeBlockUser:
			kind = hub.CommandBlockUser
		case proto.InboundTypeReportUser:
			kind = hub.CommandReportUser
		}
		return &hub.Command{
			Kind:     kind,
			TargetID: mod.TargetUserID,
		}, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	}
}

func malformedPayload(msgType string) *proto.Error {
	return &proto.Error{Code: "invalid_message", Msg: "malformed " + msgType + " payload"}
}

func outboundFromEvent(event *hub.Event) proto.Outbound {
	switch event.Kind {
	case hub.EventMessageReceived:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  messageToPayload(event.Message, event.TempID),
		}
	case hub.EventMessageRead:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageRead,
			Data: proto.MessageReadPayload{
				MessageID: event.MessageID,
				ReaderID:  event.ReaderID,
			},
		}
	case hub.EventChatDeleted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventChatDeleted,
			Data: proto.ChatDeletedPayload{
				UserID:        event.ActorID,
				CounterpartID: event.TargetID,
			},
		}
	case hub.EventUserRestricted, hub.EventUserBlocked, hub.EventUserReported:
		name := proto.EventUserRestricted
		switch event.Kind {
		case hub.EventUserBlocked:
			name = proto.EventUserBlocked
		case hub.EventUserReported:
			name = proto.EventUserReported
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data: proto.ModerationPayload{
				ActorID:  event.ActorID,
				TargetID: event.TargetID,
			},
		}
	case hub.EventFollowStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventFollowStatusUpdate,
			Data:  event.Payload,
		}
	case hub.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func messageToPayload(msg *store.Message, tempID string) *proto.MessagePayload {
	if msg == nil {
		return nil
	}
	return &proto.MessagePayload{
		ID:               msg.ID,
		SenderID:         msg.SenderID,
		ReceiverID:       msg.ReceiverID,
		SenderUsername:   msg.SenderUsername,
		ReceiverUsername: msg.ReceiverUsername,
		Content:          msg.Content,
		Media:            mediaToWire(msg.Media),
		IsRead:           msg.IsRead,
		CreatedAt:        msg.CreatedAt,
		TempID:           tempID,
	}
}

func mediaFromWire(items []proto.MediaItem) []store.MessageMedia {
	if len(items) == 0 {
		return nil
	}
	out := make([]store.MessageMedia, 0, len(items))
	for _, m := range items {
		out = append(out, store.MessageMedia{Kind: store.MediaKind(m.Kind), URL: m.URL})
	}
	return out
}

func mediaToWire(items []store.MessageMedia) []proto.MediaItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]proto.MediaItem, 0, len(items))
	for _, m := range items {
		out = append(out, proto.MediaItem{Kind: string(m.Kind), URL: m.URL})
	}
	return out
}
