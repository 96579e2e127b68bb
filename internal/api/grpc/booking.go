package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/service"
)

const bookingServiceName = "rental.v1.BookingService"

// BookingServiceServer is the customer-facing booking API.
type BookingServiceServer interface {
	CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CheckSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SubmitRefundDetails(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SubmitReturn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SubmitPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListMyBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(bookingServiceName, "CreateBooking", BookingServiceServer.CreateBooking),
		unary(bookingServiceName, "CheckSummary", BookingServiceServer.CheckSummary),
		unary(bookingServiceName, "UpdateBooking", BookingServiceServer.UpdateBooking),
		unary(bookingServiceName, "CancelBooking", BookingServiceServer.CancelBooking),
		unary(bookingServiceName, "SubmitRefundDetails", BookingServiceServer.SubmitRefundDetails),
		unary(bookingServiceName, "SubmitReturn", BookingServiceServer.SubmitReturn),
		unary(bookingServiceName, "SubmitPayment", BookingServiceServer.SubmitPayment),
		unary(bookingServiceName, "GetBooking", BookingServiceServer.GetBooking),
		unary(bookingServiceName, "ListMyBookings", BookingServiceServer.ListMyBookings),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rental/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

type BookingHandler struct {
	bookingSvc  service.BookingService
	handoverSvc service.HandoverService
	paymentSvc  service.PaymentService
}

func NewBookingHandler(bookingSvc service.BookingService, handoverSvc service.HandoverService, paymentSvc service.PaymentService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc, handoverSvc: handoverSvc, paymentSvc: paymentSvc}
}

func (h *BookingHandler) CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req service.CreateBookingRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	booking, err := h.bookingSvc.CreateBooking(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	return encode(booking)
}

func (h *BookingHandler) CheckSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req service.SummaryRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	summary, err := h.bookingSvc.CheckSummary(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	return encode(summary)
}

func (h *BookingHandler) UpdateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.UpdateBookingRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	booking, err := h.bookingSvc.UpdateBooking(ctx, caller, req.BookingID, req.UpdateBookingRequest)
	if err != nil {
		return nil, err
	}
	return encode(booking)
}

func (h *BookingHandler) CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return cancelBooking(ctx, h.bookingSvc, in)
}

func (h *BookingHandler) SubmitRefundDetails(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		Payout domain.RefundPayout `json:"payout"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	booking, err := h.bookingSvc.SubmitRefundDetails(ctx, caller, req.BookingID, req.Payout)
	if err != nil {
		return nil, err
	}
	return encode(booking)
}

func (h *BookingHandler) SubmitReturn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.SubmitReturnRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	ret, err := h.handoverSvc.SubmitReturn(ctx, caller, req.BookingID, req.SubmitReturnRequest)
	if err != nil {
		return nil, err
	}
	return encode(ret)
}

func (h *BookingHandler) SubmitPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.SubmitPaymentRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	payment, err := h.paymentSvc.SubmitPayment(ctx, caller, req.BookingID, req.SubmitPaymentRequest)
	if err != nil {
		return nil, err
	}
	return encode(payment)
}

func (h *BookingHandler) GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return getBooking(ctx, h.bookingSvc, in)
}

// ListMyBookings lists the caller's own bookings, admins included.
func (h *BookingHandler) ListMyBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	caller.Role = domain.UserRoleCustomer
	return listBookings(ctx, h.bookingSvc, caller, in)
}

func cancelBooking(ctx context.Context, svc service.BookingService, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		bookingRef
		service.CancelBookingRequest
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	res, err := svc.CancelBooking(ctx, caller, req.BookingID, req.CancelBookingRequest)
	if err != nil {
		return nil, err
	}
	return encode(res)
}

func getBooking(ctx context.Context, svc service.BookingService, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req bookingRef
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	details, err := svc.GetBooking(ctx, caller, req.BookingID)
	if err != nil {
		return nil, err
	}
	return encode(details)
}

func listBookings(ctx context.Context, svc service.BookingService, caller domain.Caller, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.ListBookingsRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	bookings, total, err := svc.ListBookings(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return encode(bookingList{Bookings: bookings, TotalCount: total})
}
