package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/service"
)

const notificationServiceName = "rental.v1.NotificationService"

type NotificationServiceServer interface {
	GetNotifications(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	MarkNotificationRead(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var NotificationServiceDesc = grpc.ServiceDesc{
	ServiceName: notificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(notificationServiceName, "GetNotifications", NotificationServiceServer.GetNotifications),
		unary(notificationServiceName, "MarkNotificationRead", NotificationServiceServer.MarkNotificationRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rental/v1/notification.proto",
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationServiceDesc, srv)
}

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) GetNotifications(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		Page     int32 `json:"page"`
		PageSize int32 `json:"page_size"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	notes, count, err := h.noteSvc.GetNotifications(ctx, userID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	return encode(map[string]any{
		"notifications": notes,
		"total_count":   count,
	})
}

func (h *NotificationHandler) MarkNotificationRead(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		NotificationID int32 `json:"notification_id"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := h.noteSvc.MarkAsRead(ctx, userID, req.NotificationID); err != nil {
		return nil, err
	}
	return encode(map[string]any{"success": true})
}
