package echo

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/crmkit/contact-ingest/internal/application/bulk"
	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

const accountHeader = "X-Account-ID"

type BulkActionHandler struct {
	submit    app.SubmitBulkAction
	queries   app.BulkActionQueries
	remediate app.RemediateErrorLog
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data     any        `json:"data,omitempty"`
	MetaData any        `json:"meta_data,omitempty"`
	Error    *errorBody `json:"error,omitempty"`
}

type pageMeta struct {
	PageNumber int   `json:"page_number"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total,omitempty"`
}

func NewBulkActionHandler(submit app.SubmitBulkAction, queries app.BulkActionQueries, remediate app.RemediateErrorLog) *BulkActionHandler {
	return &BulkActionHandler{submit: submit, queries: queries, remediate: remediate}
}

// Upload accepts a multipart CSV upload and stages it for background
// processing. The response is accepted as soon as staging succeeds.
func (h *BulkActionHandler) Upload(c echo.Context) error {
	accountID := c.Request().Header.Get(accountHeader)
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_account",
			Message: "account id header is required",
		}})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_file",
			Message: "no file uploaded",
		}})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "unreadable_file",
			Message: "uploaded file could not be read",
		}})
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "unreadable_file",
			Message: "uploaded file could not be read",
		}})
	}

	var scheduleTime *time.Time
	if raw := c.FormValue("schedule_time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_schedule_time",
				Message: "schedule_time must be RFC3339",
			}})
		}
		scheduleTime = &parsed
	}

	out, err := h.submit.Execute(c.Request().Context(), app.SubmitBulkActionInput{
		FileBuffer:   buf,
		FileName:     fileHeader.Filename,
		FileType:     domain.FileType(c.Param("fileType")),
		ActionType:   domain.ActionType(c.FormValue("action")),
		AccountID:    accountID,
		ScheduleTime: scheduleTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidFileType),
			errors.Is(err, app.ErrUnsupportedAction),
			errors.Is(err, app.ErrEmptyUpload):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: err.Error(),
			}})
		case errors.Is(err, app.ErrConversionFailed):
			return c.JSON(http.StatusUnprocessableEntity, apiResponse{Error: &errorBody{
				Code:    "conversion_failed",
				Message: "file could not be converted; upload rejected",
			}})
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "failed to accept upload",
			}})
		}
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *BulkActionHandler) List(c echo.Context) error {
	accountID := c.Request().Header.Get(accountHeader)
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_account",
			Message: "account id header is required",
		}})
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	list, err := h.queries.List(c.Request().Context(), accountID, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to list bulk actions",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{
		Data:     list,
		MetaData: pageMeta{PageNumber: page, Limit: limit},
	})
}

func (h *BulkActionHandler) Detail(c echo.Context) error {
	accountID := c.Request().Header.Get(accountHeader)
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_account",
			Message: "account id header is required",
		}})
	}

	page := queryInt(c, "page", 1)

	detail, err := h.queries.Detail(c.Request().Context(), accountID, c.Param("actionId"), page)
	if err != nil {
		return h.queryError(c, err)
	}

	return c.JSON(http.StatusOK, apiResponse{
		Data:     detail.Rows,
		MetaData: pageMeta{PageNumber: page, Limit: 10, Total: detail.Total},
	})
}

func (h *BulkActionHandler) Stats(c echo.Context) error {
	accountID := c.Request().Header.Get(accountHeader)
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_account",
			Message: "account id header is required",
		}})
	}

	stats, err := h.queries.Stats(c.Request().Context(), accountID, c.Param("actionId"))
	if err != nil {
		return h.queryError(c, err)
	}

	return c.JSON(http.StatusOK, apiResponse{Data: stats})
}

type remediateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Remediate accepts corrections for a failed error-log row and promotes it to
// a real contact.
func (h *BulkActionHandler) Remediate(c echo.Context) error {
	accountID := c.Request().Header.Get(accountHeader)
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "missing_account",
			Message: "account id header is required",
		}})
	}

	id, err := strconv.ParseInt(c.Param("errorLogId"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_error_log_id",
			Message: "error log id must be a positive integer",
		}})
	}

	var req remediateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_body",
			Message: "request body must be json",
		}})
	}

	err = h.remediate.Execute(c.Request().Context(), app.RemediateErrorLogInput{
		ErrorLogID: id,
		AccountID:  accountID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrErrorLogNotFound):
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "error log entry not found",
			}})
		case errors.Is(err, app.ErrInvalidContact), errors.Is(err, app.ErrNotRemediable):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: err.Error(),
			}})
		case errors.Is(err, app.ErrDuplicateContact):
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:    "duplicate_contact",
				Message: err.Error(),
			}})
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "failed to remediate error log entry",
			}})
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{"status": "remediated"}})
}

func (h *BulkActionHandler) queryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidJobID):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_action_id",
			Message: "action id must be a uuid",
		}})
	case errors.Is(err, app.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "not_found",
			Message: "bulk action not found",
		}})
	default:
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to fetch bulk action",
		}})
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
