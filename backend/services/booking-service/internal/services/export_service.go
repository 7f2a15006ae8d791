package services

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet     = "Bookings"
	exportDateTimeFmt = "02.01.2006 15:04"
	calendarProductID = "-//booking-calendar//rooms//EN"
)

var bookingsHeader = []any{
	"Room", "Guest", "Phone", "Email", "Check-in", "Check-out", "Nights",
	"Adults", "Children", "Daily price", "Total", "Paid", "Door code", "Notes",
}

type ExportService interface {
	// BookingsXLSX renders bookings overlapping [from, to) as a spreadsheet.
	BookingsXLSX(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]byte, error)
	// RoomCalendar renders one room's bookings as an iCalendar feed.
	RoomCalendar(ctx context.Context, ownerID, roomID uuid.UUID) ([]byte, error)
}

type exportService struct {
	roomRepo    repositories.RoomRepository
	bookingRepo repositories.BookingRepository
}

func NewExportService(roomRepo repositories.RoomRepository, bookingRepo repositories.BookingRepository) ExportService {
	return &exportService{roomRepo: roomRepo, bookingRepo: bookingRepo}
}

func (s *exportService) BookingsXLSX(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]byte, error) {
	if !from.Before(to) || to.Sub(from) > constants.MaxExportRangeDays*24*time.Hour {
		return nil, invalidDateRange()
	}

	rooms, err := s.roomRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}

	bookings, err := s.bookingRepo.ListByOwner(ctx, ownerID, repositories.BookingFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}

	title := fmt.Sprintf("Period: %s - %s", from.Format("02.01.2006"), to.Format("02.01.2006"))
	if err := f.SetCellValue(bookingsSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(bookingsSheet, "A2", &bookingsHeader); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(bookingsHeader))
		_ = f.SetCellStyle(bookingsSheet, "A2", lastCol+"2", headerStyle)
	}

	unpaidStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})
	if err != nil {
		unpaidStyle = 0
	}

	loc := constants.AvitoLocation()
	for i, b := range bookings {
		rowNum := i + 3
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		row := []any{
			names[b.RoomID],
			b.ClientName,
			b.ClientPhone,
			utils.Val(b.ClientEmail),
			b.CheckIn.In(loc).Format(exportDateTimeFmt),
			b.CheckOut.In(loc).Format(exportDateTimeFmt),
			b.Nights(),
			b.Adults,
			b.Children,
			b.DailyPrice,
			b.TotalPrice(),
			paidLabel(b.Paid),
			utils.Val(b.DoorCode),
			utils.Val(b.AdditionalInfo),
		}
		if err := f.SetSheetRow(bookingsSheet, cell, &row); err != nil {
			return nil, err
		}
		if !b.Paid && unpaidStyle != 0 {
			end, _ := excelize.CoordinatesToCellName(len(row), rowNum)
			_ = f.SetCellStyle(bookingsSheet, cell, end, unpaidStyle)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 20)
	_ = f.SetColWidth(bookingsSheet, "B", "D", 24)
	_ = f.SetColWidth(bookingsSheet, "E", "F", 18)
	_ = f.SetColWidth(bookingsSheet, "N", "N", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func paidLabel(paid bool) string {
	if paid {
		return "yes"
	}
	return "no"
}

func (s *exportService) RoomCalendar(ctx context.Context, ownerID, roomID uuid.UUID) ([]byte, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || room.UserID != ownerID {
		return nil, notFound("Room")
	}

	bookings, err := s.bookingRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(room.Name)

	for _, b := range bookings {
		ev := cal.AddEvent(b.ID.String() + "@booking-calendar")
		ev.SetDtStampTime(b.UpdatedAt.UTC())
		ev.SetCreatedTime(b.CreatedAt.UTC())
		ev.SetModifiedAt(b.UpdatedAt.UTC())
		ev.SetStartAt(b.CheckIn.UTC())
		ev.SetEndAt(b.CheckOut.UTC())
		ev.SetSummary(b.ClientName)
		ev.SetLocation(room.Name)
		ev.SetDescription(calendarDescription(b))
	}
	return []byte(cal.Serialize()), nil
}

func calendarDescription(b *models.Booking) string {
	desc := fmt.Sprintf("Phone: %s\nGuests: %d+%d\nNights: %d\nTotal: %.2f",
		b.ClientPhone, b.Adults, b.Children, b.Nights(), b.TotalPrice())
	if !b.Paid {
		desc += "\nUnpaid"
	}
	return desc
}
