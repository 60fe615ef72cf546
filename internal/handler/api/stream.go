package api

import (
	"context"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamConn serialises writes from the training callback and the pinger.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamConn) send(msg StreamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *streamConn) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *streamConn) close(code int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

// PredictStream runs a forecast over a websocket, sending one "epoch" frame
// per training epoch and a final "result" or "error" frame. Closing the
// socket cancels the training.
func (h *Handler) PredictStream(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Debug("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()
	ws := &streamConn{conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := ws.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	params := predictParams(req)
	params.OnEpoch = func(p models.EpochProgress) {
		loss, val := p.Loss, p.ValLoss
		if err := ws.send(StreamMessage{
			Type:      "epoch",
			Epoch:     p.Epoch,
			Epochs:    p.Epochs,
			Loss:      &loss,
			ValLoss:   &val,
			ElapsedMs: p.Elapsed.Milliseconds(),
		}); err != nil {
			cancel()
		}
	}

	f, err := h.predict.Predict(ctx, params)
	if err != nil {
		appErr := MapForecastError(err)
		if h.metrics != nil {
			h.metrics.RecordError(appErr.Code)
		}
		h.logger.Debug("stream forecast failed", applogger.Symbol(req.Symbol), applogger.Error(err))
		_ = ws.send(StreamMessage{Type: "error", Error: appErr.Message, Code: appErr.Code})
		ws.close(websocket.CloseNormalClosure, "")
		return nil
	}
	resp := NewForecastResponse(f)
	_ = ws.send(StreamMessage{Type: "result", Data: &resp})
	ws.close(websocket.CloseNormalClosure, "")
	return nil
}
