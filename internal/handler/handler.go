package handler

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/iurnickita/tonpaybot/internal/dispatcher"
	"github.com/iurnickita/tonpaybot/internal/gzip"
	"github.com/iurnickita/tonpaybot/internal/handler/config"
	"github.com/iurnickita/tonpaybot/internal/logger"
)

// Прием вебхука. Платформа повторяет доставку, если ответ не 200
// или задержан, поэтому подтверждаем сразу и всегда, а разбор
// и обработка идут отдельно

func Serve(ctx context.Context, cfg config.Config, disp dispatcher.Dispatcher, zaplog *zap.Logger) error {
	pool := newDispatchPool(disp, cfg.Workers, cfg.QueueSize, zaplog)
	h := newHandler(pool, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	pool.Shutdown(cfg.DrainTimeout)
	return err
}

type handler struct {
	pool   *dispatchPool
	dedup  *updateDedup
	zaplog *zap.Logger
}

func newHandler(pool *dispatchPool, zaplog *zap.Logger) *handler {
	return &handler{
		pool:   pool,
		dedup:  newUpdateDedup(dedupWindow),
		zaplog: zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", gzip.GzipMiddleware(logger.RequestLogMdlw(h.PostWebhook, h.zaplog)))
	mux.HandleFunc("GET /ping", h.GetPing)

	return mux
}

func (h *handler) PostWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.zaplog.Error("read webhook body", zap.Error(err))
		h.ack(w)
		return
	}

	update, err := parseUpdate(body)
	if err != nil {
		// подтверждаем и нечитаемое: повторная доставка его не исправит
		h.zaplog.Error("parse webhook body", zap.Error(err))
		h.ack(w)
		return
	}

	if h.dedup.Seen(update.ID) {
		h.zaplog.Info("duplicate delivery", zap.Int64("update_id", update.ID))
		h.ack(w)
		return
	}

	if !h.pool.Enqueue(update) {
		h.zaplog.Warn("dispatch queue full, update dropped", zap.Int64("update_id", update.ID))
	}
	h.ack(w)
}

// минимальное подтверждение, всегда 200
func (h *handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func (h *handler) GetPing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
