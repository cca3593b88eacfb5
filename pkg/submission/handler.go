package submission

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/pkg/middleware"
	"github.com/vango-dev/thbase/pkg/records"
	"github.com/vango-dev/thbase/pkg/upload"
)

const successMessage = "Upload successful"

// Publisher receives every appended record.
type Publisher interface {
	Publish(rec records.Record) int
}

// Options configures a Handler.
type Options struct {
	// Receiver validates and stores the image. Required.
	Receiver *upload.Receiver

	// Records stores the appended record. Required.
	Records records.Store

	// Feed, if set, is notified of each appended record.
	Feed Publisher

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler serves POST submissions.
type Handler struct {
	receiver *upload.Receiver
	records  records.Store
	feed     Publisher
	logger   *slog.Logger
	maxBody  int64
}

// New creates a Handler.
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var maxBody int64
	if limit := opts.Receiver.Config().MaxFileSize; limit > 0 {
		maxBody = limit + FormOverhead
	}

	return &Handler{
		receiver: opts.Receiver,
		records:  opts.Records,
		feed:     opts.Feed,
		logger:   logger.With("component", "submission"),
		maxBody:  maxBody,
	}
}

// ServeHTTP handles one submission.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", middleware.RequestIDFrom(ctx))

	form, err := ParseForm(r, h.maxBody)
	if err != nil {
		h.fail(ctx, w, logger, err, nil)
		return
	}
	defer form.RemoveAll()

	file, err := h.receiver.Receive(ctx, form.Image)
	if err != nil {
		if !upload.IsUploadError(err) {
			err = errors.FromError(err, "E301")
		}
		h.fail(ctx, w, logger, err, nil)
		return
	}
	middleware.RecordImageStored(file.Size)

	stored, err := h.records.Append(ctx, form.TH, records.Record{
		Link:     form.Link,
		BaseType: form.BaseType,
		Image:    records.ImageName(file.Name),
		Author: records.Author{
			Name: form.Author.Name,
			Tag:  form.Author.Tag,
		},
	})
	if err != nil {
		h.fail(ctx, w, logger, errors.FromError(err, "E302"), file)
		return
	}
	middleware.RecordRecordAppended()

	logger.Info("record appended",
		"th", stored.TH,
		"id", stored.ID,
		"image", file.Name,
		"size", file.Size)

	if h.feed != nil {
		h.feed.Publish(stored)
	}

	_ = WriteJSON(w, http.StatusOK, Response{Message: successMessage, Data: &stored})
}

// fail writes the response for err. A stored image is removed first.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, stored *upload.File) {
	if stored != nil {
		// The request may already be cancelled; cleanup must still run.
		if rerr := h.receiver.Store().Remove(context.WithoutCancel(ctx), stored.Name); rerr != nil && !stderrors.Is(rerr, upload.ErrNotFound) {
			logger.Error("remove image after failed submission", "image", stored.Name, "error", rerr)
		}
	}

	switch {
	case stderrors.Is(err, upload.ErrTooLarge):
		middleware.RecordUploadRejected("too_large")
		_ = WriteJSON(w, http.StatusBadRequest, Response{Message: "Upload failed: " + errors.New("E211").Message})

	case stderrors.Is(err, upload.ErrType):
		middleware.RecordUploadRejected("type")
		_ = WriteJSON(w, http.StatusBadRequest, Response{Message: "Upload failed: " + errors.New("E210").Message})

	default:
		status := errors.StatusOf(err)
		if ae, ok := errors.As(err); ok && status < http.StatusInternalServerError {
			middleware.RecordUploadRejected(rejectReason(ae.Code))
			logger.Debug("submission rejected", "code", ae.Code, "error", err)
			_ = WriteJSON(w, status, Response{Message: ae.Message})
			return
		}

		logger.Error("submission failed", "error", err)
		_ = WriteJSON(w, http.StatusInternalServerError, Response{
			Message: "Internal server error",
			Error:   err.Error(),
		})
	}
}

func rejectReason(code string) string {
	switch code {
	case "E201":
		return "missing_fields"
	case "E202":
		return "invalid_th"
	case "E203":
		return "invalid_base_type"
	case "E204":
		return "malformed_form"
	default:
		return "other"
	}
}
