package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"srisai/internal/model"
)

const (
	FieldIncorrect     = "FIELD_INCORRECT"
	FieldRequired      = "FIELD_REQUIRED"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized    = "UNAUTHORIZED"
	ConfigMissing   = "CONFIG_MISSING"
	NothingToExport = "NOTHING_TO_EXPORT"
	TooManyRequests = "TOO_MANY_REQUESTS"
)

type Response struct {
	Status string  `json:"status"`
	Error  *Error  `json:"error,omitempty"`
	Data   any     `json:"data,omitempty"`
	Notice *Notice `json:"notice,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

// Notice is a user-facing message the page shows and then removes after
// ClearAfterMs (0 means keep it).
type Notice struct {
	Text         string `json:"text"`
	Error        bool   `json:"error"`
	ClearAfterMs int64  `json:"clear_after_ms,omitempty"`
}

func NewNotice(text string, isError bool, clearAfter time.Duration) *Notice {
	return &Notice{Text: text, Error: isError, ClearAfterMs: clearAfter.Milliseconds()}
}

type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

type ClearRequest struct {
	Confirm bool `json:"confirm" form:"confirm"`
}

type BookingResponse struct {
	Booking   *model.Booking `json:"booking,omitempty"`
	ResetForm bool           `json:"reset_form"`
}

type GateResponse struct {
	State    string `json:"state"`
	Bookings any    `json:"bookings,omitempty"`
}

type BookingsTableResponse struct {
	Rows  any    `json:"rows"`
	Empty bool   `json:"empty"`
	HTML  string `json:"html"`
}

type ClearResponse struct {
	Cleared  bool                   `json:"cleared"`
	Bookings *BookingsTableResponse `json:"bookings,omitempty"`
}

type SiteResponse struct {
	Year int `json:"year"`
}

// BookingNotification is published for every stored booking.
type BookingNotification struct {
	Booking     model.Booking `json:"booking"`
	PublishedAt time.Time     `json:"published_at"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadNoticeResponse(c *ginext.Context, code string, notice *Notice) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: notice.Text,
		},
		Notice: notice,
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func UnauthorizedError(c *ginext.Context, desc string, notice *Notice, data any) {
	c.AbortWithStatusJSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: desc,
		},
		Data:   data,
		Notice: notice,
	})
}

func ConfigMissingError(c *ginext.Context, notice *Notice) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ConfigMissing,
			Desc: notice.Text,
		},
		Notice: notice,
	})
}

func TooManyRequestsError(c *ginext.Context) {
	c.AbortWithStatusJSON(429, Response{
		Status: "error",
		Error: &Error{
			Code: TooManyRequests,
			Desc: "Too many attempts. Try again later.",
		},
	})
}

func SuccessResponse(c *ginext.Context, data any, notice *Notice) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
		Notice: notice,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any, notice *Notice) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
		Notice: notice,
	})
}
