package http

import (
	"encoding/json"

	"github.com/huddlechat/huddle-server/internal/core"
	"github.com/huddlechat/huddle-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid join payload"}
		}
		if join.ID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "id is required"}
		}
		return &core.Command{
			Kind: core.CommandJoin,
			User: core.User{ID: join.ID, DisplayName: join.DisplayName},
		}, nil
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid message payload"}
		}
		if send.Content == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "content is required"}
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			Content: send.Content,
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventHistory:
		msgs := make([]proto.MessageData, 0, len(event.Messages))
		for _, m := range event.Messages {
			msgs = append(msgs, messageToWire(m))
		}
		return proto.Outbound{Type: proto.OutboundTypeHistory, Data: msgs}
	case core.EventUsersList:
		users := make([]proto.UserData, 0, len(event.Users))
		for _, u := range event.Users {
			users = append(users, proto.UserData{ID: u.ID, DisplayName: u.DisplayName, Online: u.Online})
		}
		return proto.Outbound{Type: proto.OutboundTypeUsersList, Data: users}
	case core.EventNewMessage:
		return proto.Outbound{Type: proto.OutboundTypeMessage, Data: messageToWire(event.Message)}
	case core.EventUserLeft:
		return proto.Outbound{Type: proto.OutboundTypeUserLeft, Data: proto.UserLeftData{UserID: event.UserID}}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unmapped event"},
		}
	}
}

func messageToWire(m core.Message) proto.MessageData {
	return proto.MessageData{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		TS:         m.CreatedAt.UnixMilli(),
	}
}
