package processing

import (
	"context"
	"fmt"
	"sync"

	"sheet_entry_bot/internal/app"
	"sheet_entry_bot/internal/config"
	"sheet_entry_bot/internal/retry"
	"sheet_entry_bot/internal/sheets"
	"sheet_entry_bot/internal/telegram"

	"github.com/rs/zerolog/log"
)

// SheetService is the slice of the spreadsheet API the pipeline consumes.
type SheetService interface {
	GetRow(ctx context.Context, spreadsheetID, sheetName string, rowIndex int) ([]string, error)
	GetColumnRange(ctx context.Context, spreadsheetID, sheetName, columnLabel string, startRow int) ([]string, error)
	SetCell(ctx context.Context, spreadsheetID, sheetName, columnLabel string, rowNumber int, value string) error
}

// Replier delivers a reply into the originating conversation.
type Replier interface {
	SendReply(ctx context.Context, chatID int64, text string, replyToMessageID int64) error
}

type ErrorKind int

const (
	KindUnknownColumn ErrorKind = iota + 1
	KindStorage
)

// StageError is a typed pipeline failure; the handler switches on Kind to
// pick the user-facing reply.
type StageError struct {
	Kind ErrorKind
	Name string
	Err  error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("unknown column %q", e.Name)
}

func (e *StageError) Unwrap() error { return e.Err }

type Handler struct {
	cfg        app.Config
	sheets     SheetService
	replier    Replier
	resilience config.ResilienceConfig

	// Serializes locate+write per column so two in-flight messages cannot
	// claim the same row.
	lockMutex   sync.Mutex
	columnLocks map[string]*sync.Mutex
}

func NewHandler(cfg app.Config, sheetService SheetService, replier Replier, resilience config.ResilienceConfig) *Handler {
	return &Handler{
		cfg:         cfg,
		sheets:      sheetService,
		replier:     replier,
		resilience:  resilience,
		columnLocks: make(map[string]*sync.Mutex),
	}
}

// HandleUpdate runs the full pipeline for one webhook update: eligibility
// filter, parse, resolve, locate, write, reply. Every failure is terminal for
// this update and never affects other in-flight updates.
func (h *Handler) HandleUpdate(ctx context.Context, update *telegram.Update) {
	msg := update.Message
	if msg == nil {
		log.Trace().Int64("update_id", update.UpdateID).Msg("Update carries no message, ignoring")
		return
	}

	if !msg.IsGroupChat() {
		log.Trace().
			Int64("update_id", update.UpdateID).
			Str("chat_type", msg.Chat.Type).
			Msg("Chat not eligible, ignoring")
		return
	}

	cmd := ParseCommand(msg.Body())
	if cmd == nil {
		log.Trace().
			Int64("update_id", update.UpdateID).
			Msg("Message does not match NAME/VALUE, ignoring")
		return
	}

	log.Debug().
		Str("name", cmd.Name).
		Str("value", cmd.Value).
		Int64("chat_id", msg.Chat.ID).
		Msg("Handling command")

	row, label, stageErr := h.process(ctx, cmd)

	var reply string
	switch {
	case stageErr == nil:
		reply = fmt.Sprintf("%s: recorded %s in row %d", cmd.Name, cmd.Value, row)
		log.Info().
			Str("name", cmd.Name).
			Str("value", cmd.Value).
			Str("column", label).
			Int("row", row).
			Msg("Wrote value to sheet")
	case stageErr.Kind == KindUnknownColumn:
		reply = fmt.Sprintf("Could not find a column named %q in the header row", stageErr.Name)
		log.Warn().
			Str("name", stageErr.Name).
			Msg("Unknown column")
	default:
		reply = fmt.Sprintf("Failed to record %s/%s, the spreadsheet did not cooperate", cmd.Name, cmd.Value)
		log.Error().
			Err(stageErr).
			Str("name", cmd.Name).
			Msg("Spreadsheet operation failed")
	}

	h.sendReply(ctx, msg, reply)
}

// process resolves the target cell and writes the value. Returns the row and
// column label used on success.
func (h *Handler) process(ctx context.Context, cmd *Command) (int, string, *StageError) {
	// Header row is fetched fresh every time so header edits take effect
	// immediately.
	headers, err := retry.WithRetry(ctx, h.resilience.HeaderFetch, func(ctx context.Context) ([]string, error) {
		return h.sheets.GetRow(ctx, h.cfg.SpreadsheetID, h.cfg.SheetName, headerRowIndex)
	})
	if err != nil {
		return 0, "", &StageError{Kind: KindStorage, Name: cmd.Name, Err: fmt.Errorf("header fetch: %w", err)}
	}

	index := ResolveColumn(cmd.Name, headers)
	if index < 0 {
		return 0, "", &StageError{Kind: KindUnknownColumn, Name: cmd.Name}
	}
	label := sheets.ColumnLabel(index)

	lock := h.columnLock(label)
	lock.Lock()
	defer lock.Unlock()

	columnValues, err := retry.WithRetry(ctx, h.resilience.ColumnScan, func(ctx context.Context) ([]string, error) {
		return h.sheets.GetColumnRange(ctx, h.cfg.SpreadsheetID, h.cfg.SheetName, label, firstDataRow)
	})
	if err != nil {
		return 0, "", &StageError{Kind: KindStorage, Name: cmd.Name, Err: fmt.Errorf("column scan: %w", err)}
	}

	row := LocateRow(columnValues)

	_, err = retry.WithRetry(ctx, h.resilience.CellWrite, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.sheets.SetCell(ctx, h.cfg.SpreadsheetID, h.cfg.SheetName, label, row, cmd.Value)
	})
	if err != nil {
		return 0, "", &StageError{Kind: KindStorage, Name: cmd.Name, Err: fmt.Errorf("cell write: %w", err)}
	}

	return row, label, nil
}

// sendReply delivers the acknowledgment. Delivery failures are logged and
// swallowed; the write, if any, already happened.
func (h *Handler) sendReply(ctx context.Context, msg *telegram.Message, text string) {
	_, err := retry.WithRetry(ctx, h.resilience.ReplySend, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.replier.SendReply(ctx, msg.Chat.ID, text, msg.MessageID)
	})
	if err != nil {
		log.Warn().
			Err(err).
			Int64("chat_id", msg.Chat.ID).
			Int64("message_id", msg.MessageID).
			Msg("Failed to send reply")
	}
}

func (h *Handler) columnLock(label string) *sync.Mutex {
	h.lockMutex.Lock()
	defer h.lockMutex.Unlock()

	lock, ok := h.columnLocks[label]
	if !ok {
		lock = &sync.Mutex{}
		h.columnLocks[label] = lock
	}
	return lock
}
