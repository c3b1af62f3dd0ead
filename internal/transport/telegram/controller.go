package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/data/session"
	"github.com/KotFed0t/stock_screener/internal/converter/telebotConverter"
	"github.com/KotFed0t/stock_screener/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/screenerEngine"
	"github.com/KotFed0t/stock_screener/utils"
	tele "gopkg.in/telebot.v4"
)

type Session interface {
	WithSession(ctx context.Context, chatID int64, fn func(cs *session.ChatSession) error) error
}

type ReportGenerator interface {
	Generate(ctx context.Context, table model.Table) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type Controller struct {
	session          Session
	reportGenerator  ReportGenerator
	cloudStorage     CloudStorage
	stocksPerPage    int
	fileLimitInBytes int
}

// NewController builds the bot handlers. cloudStorage may be nil, then oversized exports are refused.
func NewController(cfg *config.Config, session Session, reportGenerator ReportGenerator, cloudStorage CloudStorage) *Controller {
	return &Controller{
		session:          session,
		reportGenerator:  reportGenerator,
		cloudStorage:     cloudStorage,
		stocksPerPage:    cfg.StocksPerPage,
		fileLimitInBytes: cfg.Telegram.FileLimitInBytes,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	return ctrl.Filters(c)
}

func (ctrl *Controller) Filters(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	var text string
	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		text = telebotConverter.FiltersResponse(cs.Engine.AvailableFilters())
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Filters", err)
	}

	return c.Send(text)
}

func (ctrl *Controller) Filter(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		filters, err := telebotConverter.ParseFilters(c.Message().Payload, cs.Engine.Bounds)
		if err != nil {
			return err
		}

		slog.Debug("applying filters", slog.String("rqID", rqID), slog.Any("filters", filters))

		if err = cs.Engine.Query(filters...); err != nil {
			return err
		}
		cs.Page = 0
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Filter", err)
	}

	return ctrl.sendPage(ctx, c, 0, false)
}

func (ctrl *Controller) Sort(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		attr, ascending, err := telebotConverter.ParseSort(c.Message().Payload)
		if err != nil {
			return err
		}
		if err = cs.Engine.Sort(attr, ascending); err != nil {
			return err
		}
		cs.Page = 0
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Sort", err)
	}

	return ctrl.sendPage(ctx, c, 0, false)
}

func (ctrl *Controller) Reset(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		cs.Engine.Reset()
		cs.Page = 0
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Reset", err)
	}

	if c.Callback() != nil {
		_ = c.Respond()
		return ctrl.sendPage(ctx, c, 0, true)
	}
	return ctrl.sendPage(ctx, c, 0, false)
}

func (ctrl *Controller) Results(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	page := 0
	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		page = cs.Page
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Results", err)
	}

	return ctrl.sendPage(ctx, c, page, false)
}

// Page handles prev/next buttons.
func (ctrl *Controller) Page(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	page, err := strconv.Atoi(c.Data())
	if err != nil {
		slog.Error("bad page callback data", slog.String("rqID", rqID), slog.String("data", c.Data()))
		return c.Respond()
	}

	_ = c.Respond()
	return ctrl.sendPage(ctx, c, page, true)
}

func (ctrl *Controller) sendPage(ctx context.Context, c tele.Context, page int, edit bool) error {
	var (
		text   string
		markup *tele.ReplyMarkup
	)

	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		text, markup, cs.Page = telebotConverter.ResultsPage(cs.Engine.Results(), page, ctrl.stocksPerPage)
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "sendPage", err)
	}

	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

// Export sends current results as xlsx, through cloud storage when the file exceeds the telegram limit.
func (ctrl *Controller) Export(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Controller.Export"

	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: "preparing file..."})
	}

	var results model.Table
	err := ctrl.session.WithSession(ctx, c.Chat().ID, func(cs *session.ChatSession) error {
		results = cs.Engine.Results()
		return nil
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "Export", err)
	}

	fileBytes, ext, err := ctrl.reportGenerator.Generate(ctx, results)
	if err != nil {
		slog.Error("failed to generate report", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	filename := googleDriveApi.ExportFilename(c.Chat().ID, time.Now(), ext)

	if len(fileBytes) <= ctrl.fileLimitInBytes {
		doc := &tele.Document{
			File:     tele.FromReader(bytes.NewReader(fileBytes)),
			FileName: filename,
			Caption:  fmt.Sprintf("%d stocks", results.Len()),
		}
		return c.Send(doc)
	}

	if ctrl.cloudStorage == nil {
		slog.Warn("export exceeds telegram limit", slog.String("rqID", rqID), slog.String("op", op), slog.Int("bytes", len(fileBytes)))
		return c.Send("the file is too large, narrow the results with /filter and try again")
	}

	link, err := ctrl.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("failed to upload report", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(fmt.Sprintf("the file is too large for telegram, download it here: %s", link))
}

// sendErr turns query and session faults into user messages. Engine state is untouched on these errors.
func (ctrl *Controller) sendErr(ctx context.Context, c tele.Context, handler string, err error) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	switch {
	case errors.Is(err, session.ErrNotReady):
		return c.Send(notReadyMsg)
	case errors.Is(err, telebotConverter.ErrBadFilter),
		errors.Is(err, screenerEngine.ErrAttributeNotFound),
		errors.Is(err, screenerEngine.ErrTypeMismatch):
		slog.Info("rejected query", slog.String("rqID", rqID), slog.String("handler", handler), slog.String("err", err.Error()))
		return c.Send(fmt.Sprintf("⚠️ %s\nsee /filters", err.Error()))
	default:
		slog.Error("handler failed", slog.String("rqID", rqID), slog.String("handler", handler), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
}
