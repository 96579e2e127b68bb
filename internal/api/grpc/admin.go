package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"vehicle-rental-backend/internal/service"
)

const adminBookingServiceName = "rental.v1.AdminBookingService"

// AdminBookingServiceServer is the back-office booking API. Every method
// requires the admin role.
type AdminBookingServiceServer interface {
	ConfirmPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	RejectPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ReleaseVehicle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ReturnVehicle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ProcessDepositRefund(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ProcessRefund(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetBookingDetails(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var AdminBookingServiceDesc = grpc.ServiceDesc{
	ServiceName: adminBookingServiceName,
	HandlerType: (*AdminBookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(adminBookingServiceName, "ConfirmPayment", AdminBookingServiceServer.ConfirmPayment),
		unary(adminBookingServiceName, "RejectPayment", AdminBookingServiceServer.RejectPayment),
		unary(adminBookingServiceName, "ReleaseVehicle", AdminBookingServiceServer.ReleaseVehicle),
		unary(adminBookingServiceName, "ReturnVehicle", AdminBookingServiceServer.ReturnVehicle),
		unary(adminBookingServiceName, "ProcessDepositRefund", AdminBookingServiceServer.ProcessDepositRefund),
		unary(adminBookingServiceName, "ProcessRefund", AdminBookingServiceServer.ProcessRefund),
		unary(adminBookingServiceName, "CancelBooking", AdminBookingServiceServer.CancelBooking),
		unary(adminBookingServiceName, "ListBookings", AdminBookingServiceServer.ListBookings),
		unary(adminBookingServiceName, "GetBookingDetails", AdminBookingServiceServer.GetBookingDetails),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rental/v1/admin_booking.proto",
}

func RegisterAdminBookingServiceServer(s grpc.ServiceRegistrar, srv AdminBookingServiceServer) {
	s.RegisterService(&AdminBookingServiceDesc, srv)
}

type AdminHandler struct {
	bookingSvc  service.BookingService
	handoverSvc service.HandoverService
	paymentSvc  service.PaymentService
}

func NewAdminHandler(bookingSvc service.BookingService, handoverSvc service.HandoverService, paymentSvc service.PaymentService) *AdminHandler {
	return &AdminHandler{bookingSvc: bookingSvc, handoverSvc: handoverSvc, paymentSvc: paymentSvc}
}

func (h *AdminHandler) ConfirmPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req paymentRef
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	res, err := h.paymentSvc.ConfirmPayment(ctx, caller, req.PaymentID)
	if err != nil {
		return nil, err
	}
	return encode(res)
}

func (h *AdminHandler) RejectPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req paymentRef
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	payment, err := h.paymentSvc.RejectPayment(ctx, caller, req.PaymentID)
	if err != nil {
		return nil, err
	}
	return encode(payment)
}

func (h *AdminHandler) ReleaseVehicle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.ReleaseVehicleRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	release, err := h.handoverSvc.ReleaseVehicle(ctx, caller, req.BookingID, req.ReleaseVehicleRequest)
	if err != nil {
		return nil, err
	}
	return encode(release)
}

func (h *AdminHandler) ReturnVehicle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.ReturnVehicleRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	res, err := h.handoverSvc.ReturnVehicle(ctx, caller, req.BookingID, req.ReturnVehicleRequest)
	if err != nil {
		return nil, err
	}
	return encode(res)
}

func (h *AdminHandler) ProcessDepositRefund(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.DepositRefundRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	ret, err := h.handoverSvc.ProcessDepositRefund(ctx, caller, req.BookingID, req.DepositRefundRequest)
	if err != nil {
		return nil, err
	}
	return encode(ret)
}

func (h *AdminHandler) ProcessRefund(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.ProcessRefundRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	booking, err := h.bookingSvc.ProcessRefund(ctx, caller, req.BookingID, req.ProcessRefundRequest)
	if err != nil {
		return nil, err
	}
	return encode(booking)
}

func (h *AdminHandler) CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return cancelBooking(ctx, h.bookingSvc, in)
}

func (h *AdminHandler) ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return listBookings(ctx, h.bookingSvc, caller, in)
}

func (h *AdminHandler) GetBookingDetails(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return getBooking(ctx, h.bookingSvc, in)
}
